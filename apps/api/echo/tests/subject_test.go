package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	. "github.com/pfebridge/pfebridge/apps/api/echo"
	"github.com/pfebridge/pfebridge/core/subject"
	"github.com/pfebridge/pfebridge/core/user"
)

func Test_subjectApi_propose(t *testing.T) {
	profUsr := createUser(t, "Prof Propose", "profpropose", "prof.propose@test.test", "C0mplex!pwd", user.ProfessorRoles, true)
	company := createUser(t, "Acme Propose", "acmepropose", "acme.propose@test.test", "C0mplex!pwd", user.CompanyRoles, true)
	student := createUser(t, "Stu Propose", "stupropose", "stu.propose@test.test", "C0mplex!pwd", user.StudentRoles, true)

	path := "/v1/subjects"
	body := marchallObj(t, subject.NewSubject{Title: "Anomaly detection on IoT streams", ProposerID: profUsr.ID})

	tests := []httpTest{
		{name: "no token", body: body, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "student is forbidden", token: getToken(t, student), body: body,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "empty body", token: getToken(t, profUsr),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errResp{Message: map[string]string{
				"title":       "this field is required",
				"proposer_id": "this field is required",
			}})},
		{name: "professor proposes", token: getToken(t, profUsr), body: body, wantCode: http.StatusCreated, extra: "created"},
		{name: "company proposes", token: getToken(t, company),
			body:     marchallObj(t, subject.NewSubject{Title: "Warehouse routing optimizer", ProposerID: company.ID}),
			wantCode: http.StatusCreated, extra: "created"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, path, tt.token, tt.body)
			server.ServeHTTP(rec, req)

			if tt.extra == "created" {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var subj subject.Subject
				if err := json.Unmarshal(rec.Body.Bytes(), &subj); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				if subj.Status != subject.StatusPending {
					t.Errorf("failed! status = %s", subj.Status)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_subjectApi_moderation(t *testing.T) {
	scheduler := createUser(t, "Uni Mod", "unimod", "uni.mod@test.test", "C0mplex!pwd", user.UniversityRoles, true)
	student := createUser(t, "Stu Mod", "stumod", "stu.mod@test.test", "C0mplex!pwd", user.StudentRoles, true)

	toApprove := createSubject(t, subject.StatusPending)
	toReject := createSubject(t, subject.StatusPending)
	token := getToken(t, scheduler)

	t.Run("student cannot approve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/subjects/"+toApprove.ID+"/approve", getToken(t, student))
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("approve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/subjects/"+toApprove.ID+"/approve", token)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var subj subject.Subject
		if err := json.Unmarshal(rec.Body.Bytes(), &subj); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if subj.Status != subject.StatusApproved {
			t.Errorf("failed! status = %s", subj.Status)
		}
	})

	t.Run("approve twice conflicts", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/subjects/"+toApprove.ID+"/approve", token)
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, errResp{Message: `cannot move subject from "approved" to "approved"`}),
		}, rec)
	})

	t.Run("reject requires a reason", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/subjects/"+toReject.ID+"/reject", token, marchallObj(t, RejectRequest{}))
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errResp{Message: map[string]string{"reason": "this field is required"}}),
		}, rec)
	})

	t.Run("reject", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/subjects/"+toReject.ID+"/reject", token,
			marchallObj(t, RejectRequest{Reason: "duplicate of an existing subject"}))
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var subj subject.Subject
		if err := json.Unmarshal(rec.Body.Bytes(), &subj); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if subj.Status != subject.StatusRejected || subj.RejectReason != "duplicate of an existing subject" {
			t.Errorf("failed! subject = %+v", subj)
		}
	})

	t.Run("assign student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/subjects/"+toApprove.ID+"/assign", token,
			marchallObj(t, AssignStudentRequest{StudentID: student.ID}))
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var subj subject.Subject
		if err := json.Unmarshal(rec.Body.Bytes(), &subj); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if subj.StudentID != student.ID {
			t.Errorf("failed! studentID = %q", subj.StudentID)
		}
	})

	t.Run("assign requires student id", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/subjects/"+toApprove.ID+"/assign", token,
			marchallObj(t, AssignStudentRequest{}))
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errResp{Message: map[string]string{"student_id": "this field is required"}}),
		}, rec)
	})
}
