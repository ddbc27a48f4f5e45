package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	. "github.com/pfebridge/pfebridge/apps/api/echo"
	"github.com/pfebridge/pfebridge/core/user"
)

func Test_userApi_login(t *testing.T) {
	createUser(t, "Aicha Login", "aichalogin", "aicha.login@test.test", "C0mplex!pwd", user.StudentRoles, true)
	createUser(t, "Driss Gone", "drissgone", "driss.gone@test.test", "C0mplex!pwd", user.StudentRoles, false)

	path := "/v1/users/login"
	tests := []httpTest{
		{
			name: "empty body", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errResp{Message: map[string]string{
				"username": "this field is required",
				"password": "this field is required",
			}}),
		},
		{
			name: "unknown user", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, LoginRequest{Username: "ghost", Password: "C0mplex!pwd"}),
			wantData: marchallObj(t, errResp{Message: "authentication failed"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, LoginRequest{Username: "aichalogin", Password: "nope"}),
			wantData: marchallObj(t, errResp{Message: "authentication failed"}),
		},
		{
			name: "deactivated account", wantCode: http.StatusForbidden,
			body:     marchallObj(t, LoginRequest{Username: "drissgone", Password: "C0mplex!pwd"}),
			wantData: marchallObj(t, errResp{Message: "account deactivated"}),
		},
		{
			name: "login with username", wantCode: http.StatusOK,
			body:  marchallObj(t, LoginRequest{Username: "aichalogin", Password: "C0mplex!pwd"}),
			extra: "token",
		},
		{
			name: "login with email", wantCode: http.StatusOK,
			body:  marchallObj(t, LoginRequest{Username: "aicha.login@test.test", Password: "C0mplex!pwd"}),
			extra: "token",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, path, tt.body)
			server.ServeHTTP(rec, req)

			if tt.extra == "token" {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var resp LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				if resp.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_query(t *testing.T) {
	admin := createUser(t, "Root Query", "rootquery", "root.query@test.test", "C0mplex!pwd", user.AdminRoles, true)
	student := createUser(t, "Sami Query", "samiquery", "sami.query@test.test", "C0mplex!pwd", user.StudentRoles, true)

	path := "/v1/users"
	tests := []httpTest{
		{name: "no token", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "student is forbidden", token: getToken(t, student), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "admin lists users", token: getToken(t, admin), wantCode: http.StatusOK, extra: "list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, path, tt.token)
			server.ServeHTTP(rec, req)

			if tt.extra == "list" {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var users []user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				if len(users) < 2 {
					t.Errorf("failed! got %d users; want at least 2", len(users))
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_register(t *testing.T) {
	admin := createUser(t, "Root Register", "rootregister", "root.register@test.test", "C0mplex!pwd", user.AdminRoles, true)
	student := createUser(t, "Sami Register", "samiregister", "sami.register@test.test", "C0mplex!pwd", user.StudentRoles, true)

	path := "/v1/users/register"
	newUsr := user.NewUser{
		Name:            "Nadia New",
		Username:        "nadianew",
		Email:           "nadia.new@test.test",
		Password:        "C0mplex!pwd",
		PasswordConfirm: "C0mplex!pwd",
		Roles:           user.StudentRoles,
	}

	t.Run("student is forbidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, student), marchallObj(t, newUsr))
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("weak password rejected", func(t *testing.T) {
		weak := newUsr
		weak.Password, weak.PasswordConfirm = "short", "short"
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, admin), marchallObj(t, weak))
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errResp{Message: map[string]string{
				"password": "password must contain at least 8 characters",
			}}),
		}, rec)
	})

	t.Run("admin registers user", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, admin), marchallObj(t, newUsr))
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var usr user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if usr.Username != "nadianew" || !usr.IsActive {
			t.Errorf("failed! usr = %+v", usr)
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		dup := newUsr
		dup.Username = "nadianew2"
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, admin), marchallObj(t, dup))
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errResp{Message: map[string]string{
				"email": "a user with this email already exists",
			}}),
		}, rec)
	})
}

func Test_userApi_passwordReset(t *testing.T) {
	createUser(t, "Fatima Reset", "fatimareset", "fatima.reset@test.test", "C0mplex!pwd", user.StudentRoles, true)

	body := marchallObj(t, PasswordResetRequest{Email: "fatima.reset@test.test"})
	req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", body)
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	// same response for unknown emails: no account enumeration
	body = marchallObj(t, PasswordResetRequest{Email: "ghost@test.test"})
	req, rec2 := newRequest(http.MethodPost, "/v1/users/password-reset", body)
	server.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Errorf("failed! code = %v; wantCode %v", rec2.Code, http.StatusOK)
	}
	if ok, _ := jsonBytesEqual(t, rec.Body.Bytes(), rec2.Body.Bytes()); !ok {
		t.Error("failed! known and unknown emails should yield the same response")
	}
}

func Test_userApi_retrieve(t *testing.T) {
	admin := createUser(t, "Root Retrieve", "rootretrieve", "root.retrieve@test.test", "C0mplex!pwd", user.AdminRoles, true)
	usr := createUser(t, "Omar Self", "omarself", "omar.self@test.test", "C0mplex!pwd", user.StudentRoles, true)
	other := createUser(t, "Lina Other", "linaother", "lina.other@test.test", "C0mplex!pwd", user.StudentRoles, true)

	tests := []httpTest{
		{name: "user reads self", path: "/v1/users/" + usr.ID, token: getToken(t, usr), wantCode: http.StatusOK, wantData: marchallObj(t, usr)},
		{name: "user cannot read others", path: "/v1/users/" + other.ID, token: getToken(t, usr), wantCode: http.StatusNotFound, wantData: marchallObj(t, errResp{Message: "not found"})},
		{name: "admin reads anyone", path: "/v1/users/" + other.ID, token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallObj(t, other)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
