package user

import (
	"testing"
	"time"

	"github.com/pfebridge/pfebridge/core"
)

func TestMakeVerifyToken(t *testing.T) {
	conf := &core.Config{
		SecretKey:                 []byte("secret"),
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
	}

	now := time.Now()
	usr := User{
		ID:        "4e8d3b60-8cf5-45ab-923c-ca10a34f5e3b",
		Name:      "T",
		Username:  "t",
		Email:     "t@test.test",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: now,
	}
	_ = usr.SetPassword("pwd")

	validToken, err := MakeToken(usr, conf)
	if err != nil {
		t.Fatalf("MakeToken() failed: %v", err)
	}

	// generate an expired token
	dayLate := conf.PasswordResetTimeoutDelta + (24 * time.Hour)
	NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := MakeToken(usr, conf)
	if err != nil {
		t.Fatalf("MakeToken() failed: %v", err)
	}
	NowFunc = time.Now // reset

	tests := []struct {
		name    string
		usr     User
		token   string
		wantErr error
	}{
		{name: "no token", usr: usr, wantErr: errInvalidToken},
		{name: "invalid parts len", usr: usr, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", usr: usr, token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", usr: usr, token: "NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid token", usr: usr, token: "HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "expired token", usr: usr, token: expiredToken, wantErr: errTokenExpired},
		{name: "valid token", usr: usr, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := verifyToken(tt.usr, tt.token, conf); err != tt.wantErr {
				t.Errorf("verifyToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
