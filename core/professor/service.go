package professor

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("professor not found")

type (
	Repository interface {
		CreateProfessor(ctx context.Context, prof Professor) (Professor, error)
		GetProfessorByID(ctx context.Context, id string) (Professor, error)
		QueryAllProfessors(ctx context.Context) ([]Professor, error)
		UpdateProfessor(ctx context.Context, prof Professor) (Professor, error)
		DeleteProfessorsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, np NewProfessor) (Professor, error) {
	now := time.Now().UTC()
	prof := Professor{
		UserID:       np.UserID,
		Name:         np.Name,
		Email:        np.Email,
		Department:   np.Department,
		MaxDefenses:  np.MaxDefenses,
		Availability: np.Availability,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateProfessor(ctx, prof)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Professor, error) {
	return svc.repo.GetProfessorByID(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Professor, error) {
	return svc.repo.QueryAllProfessors(ctx)
}

func (svc *Service) Update(ctx context.Context, id string, up UpdateProfessor) (Professor, error) {
	prof, err := svc.repo.GetProfessorByID(ctx, id)
	if err != nil {
		return Professor{}, err
	}
	prof.Name = up.Name
	prof.Email = up.Email
	if up.Department != "" {
		prof.Department = up.Department
	}
	if up.MaxDefenses != nil {
		prof.MaxDefenses = *up.MaxDefenses
	}
	if up.Availability != nil {
		prof.Availability = up.Availability
	}
	prof.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProfessor(ctx, prof)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteProfessorsByID(ctx, ids...)
}
