package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/pfebridge/pfebridge/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByUsername(ctx context.Context, username string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		GetUserByUsernameOrEmail(ctx context.Context, username string) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name, User.Username or User.Email.
		FilterUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		UpdateUser(ctx context.Context, usr User, isActive *bool) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, conf: conf}
}

func (svc *Service) checkUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email, exclUsers...); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		IsActive:  true,
		Roles:     nu.Roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]User, error) {
	return svc.repo.FilterUsers(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr := User{
		ID:        id,
		Name:      uu.Name,
		Username:  uu.Username,
		Email:     uu.Email,
		Roles:     uu.Roles,
		UpdatedAt: time.Now().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(ctx, usr, uu.IsActive)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr, nil)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

// RequestPasswordReset emails a reset token to the account owner.
// The mail is rendered and sent in the background.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	uid, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.GetByID(ctx, uid)
	if err != nil {
		return err
	}
	if err = verifyToken(usr, rp.Token, svc.conf); err != nil {
		return core.NewValidationError(err)
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr, nil)
	return errors.Wrap(err, "saving new password")
}

func (svc *Service) sendPasswordResetMail(usr User) {
	token, err := MakeToken(usr, svc.conf)
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      fmt.Sprintf("Password reset on %s", svc.conf.AppName),
		TemplateName: "password_reset",
		TemplateData: struct{ UID, Token string }{UID: EncodeUID(usr), Token: token},
	})
}
