package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/pfebridge/pfebridge/core/professor"
	"github.com/pfebridge/pfebridge/core/user"
)

func Test_professorApi(t *testing.T) {
	scheduler := createUser(t, "Uni Staff", "unistaff", "uni.staff@test.test", "C0mplex!pwd", user.UniversityRoles, true)
	student := createUser(t, "Stu Staff", "stustaff", "stu.staff@test.test", "C0mplex!pwd", user.StudentRoles, true)

	path := "/v1/professors"
	token := getToken(t, scheduler)

	newProf := professor.NewProfessor{
		Name:        "Hind Berrada",
		Email:       "hind.berrada@uni.test",
		Department:  "Computer Science",
		MaxDefenses: 2,
		Availability: []professor.Window{
			{Weekday: time.Monday, Times: []string{"9:00", "10:00"}},
		},
	}

	t.Run("student cannot create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, student), marchallObj(t, newProf))
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		bad := newProf
		bad.Email = "not-an-email"
		req, rec := newAuthRequest(http.MethodPost, path, token, marchallObj(t, bad))
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errResp{Message: map[string]string{"email": "email must be a valid email address"}}),
		}, rec)
	})

	var created professor.Professor
	t.Run("create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, token, marchallObj(t, newProf))
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if created.ID == "" || created.Name != newProf.Name || created.MaxDefenses != 2 {
			t.Errorf("failed! professor = %+v", created)
		}
	})

	t.Run("retrieve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path+"/"+created.ID, getToken(t, student))
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, created)}, rec)
	})

	t.Run("retrieve unknown", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path+"/ghost", token)
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, errResp{Message: "professor not found"}),
		}, rec)
	})

	t.Run("update", func(t *testing.T) {
		max := 4
		up := professor.UpdateProfessor{MaxDefenses: &max}
		req, rec := newAuthRequest(http.MethodPut, path+"/"+created.ID, token, marchallObj(t, up))
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var got professor.Professor
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if got.MaxDefenses != 4 || got.Name != created.Name {
			t.Errorf("failed! professor = %+v", got)
		}
	})

	t.Run("student cannot delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, path+"/"+created.ID, getToken(t, student))
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, path+"/"+created.ID, token)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}
		if _, err := profRepo.GetProfessorByID(ctx, created.ID); err != professor.ErrNotFound {
			t.Errorf("GetProfessorByID() error = %v, want %v", err, professor.ErrNotFound)
		}
	})
}
