package subject

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/pfebridge/pfebridge/core"
)

var ErrNotFound = errors.New("subject not found")

type (
	Repository interface {
		CreateSubject(ctx context.Context, subj Subject) (Subject, error)
		GetSubjectByID(ctx context.Context, id string) (Subject, error)
		FilterSubjects(ctx context.Context, filter QueryFilter) ([]Subject, error)
		UpdateSubject(ctx context.Context, subj Subject) (Subject, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Propose(ctx context.Context, ns NewSubject) (Subject, error) {
	now := time.Now().UTC()
	subj := Subject{
		Title:       ns.Title,
		Description: ns.Description,
		ProposerID:  ns.ProposerID,
		StudentID:   ns.StudentID,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateSubject(ctx, subj)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubjectByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Subject, error) {
	return svc.repo.FilterSubjects(ctx, filter)
}

// Approve moves a pending subject to approved.
func (svc *Service) Approve(ctx context.Context, id string) (Subject, error) {
	subj, err := svc.repo.GetSubjectByID(ctx, id)
	if err != nil {
		return Subject{}, err
	}
	if subj.Status != StatusPending {
		return Subject{}, &StatusError{From: subj.Status, To: StatusApproved}
	}
	subj.Status = StatusApproved
	subj.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSubject(ctx, subj)
}

// Reject moves a pending subject to rejected. A reason is mandatory.
func (svc *Service) Reject(ctx context.Context, id, reason string) (Subject, error) {
	reason = core.CleanString(reason)
	if reason == "" {
		return Subject{}, core.NewValidationError(errors.New("a rejection reason is required"),
			core.FieldError{Field: "reason", Error: "this field is required"})
	}
	subj, err := svc.repo.GetSubjectByID(ctx, id)
	if err != nil {
		return Subject{}, err
	}
	if subj.Status != StatusPending {
		return Subject{}, &StatusError{From: subj.Status, To: StatusRejected}
	}
	subj.Status = StatusRejected
	subj.RejectReason = reason
	subj.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSubject(ctx, subj)
}

// AssignStudent records the student who will work the subject.
func (svc *Service) AssignStudent(ctx context.Context, id, studentID string) (Subject, error) {
	subj, err := svc.repo.GetSubjectByID(ctx, id)
	if err != nil {
		return Subject{}, err
	}
	subj.StudentID = studentID
	subj.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSubject(ctx, subj)
}
