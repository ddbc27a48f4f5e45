package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/pfebridge/pfebridge/apps/api/echo"
	"github.com/pfebridge/pfebridge/core/defense"
	"github.com/pfebridge/pfebridge/core/professor"
	"github.com/pfebridge/pfebridge/core/subject"
	"github.com/pfebridge/pfebridge/core/user"
)

var (
	ctx = context.Background()

	server *Server

	usrRepo  user.Repository
	profRepo professor.Repository
	subjRepo subject.Repository
	defRepo  defense.Repository

	usrSvc *user.Service

	errMissingToken = errResp{Message: "missing or malformed jwt"}
	errForbidden    = errResp{Message: "permission denied"}
)

// errResp mirrors the API error envelope.
type errResp struct {
	Success bool        `json:"success"`
	Message interface{} `json:"message"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func createUser(t *testing.T, name, uname, email, pwd string, roles []string, isActive bool) user.User {
	t.Helper()
	usr, err := usrSvc.Create(ctx, user.NewUser{
		Name:     name,
		Username: uname,
		Email:    email,
		Password: pwd,
		Roles:    roles,
	})
	if err != nil {
		t.Fatalf("createUser(): %v", err)
	}
	if !isActive {
		if usr, err = usrRepo.UpdateUser(ctx, usr, &isActive); err != nil {
			t.Fatalf("createUser(): %v", err)
		}
	}
	return usr
}

func createProfessor(t *testing.T, name string, maxDefenses int, windows ...professor.Window) professor.Professor {
	t.Helper()
	prof, err := profRepo.CreateProfessor(ctx, professor.Professor{
		Name:         name,
		Email:        name + "@uni.test",
		MaxDefenses:  maxDefenses,
		Availability: windows,
	})
	if err != nil {
		t.Fatalf("createProfessor(): %v", err)
	}
	return prof
}

func createSubject(t *testing.T, status subject.Status) subject.Subject {
	t.Helper()
	subj, err := subjRepo.CreateSubject(ctx, subject.Subject{
		Title:      "Realtime fleet telemetry",
		ProposerID: "prof-proposer",
		Status:     status,
	})
	if err != nil {
		t.Fatalf("createSubject(): %v", err)
	}
	return subj
}

func createDefense(t *testing.T, status defense.Status, jury []string, at time.Time) defense.Defense {
	t.Helper()
	def, err := defRepo.CreateDefense(ctx, defense.Defense{
		StudentID: "student-1",
		SubjectID: "subject-1",
		Status:    defense.StatusPending,
	})
	if err != nil {
		t.Fatalf("createDefense(): %v", err)
	}
	def.Status = status
	def.Jury = jury
	if !at.IsZero() {
		def.Date.SetValid(at)
	}
	if def, err = defRepo.UpdateDefense(ctx, def); err != nil {
		t.Fatalf("createDefense(): %v", err)
	}
	return def
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
