package subject

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pfebridge/pfebridge/core"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Subject is a PFE topic proposed by a professor or a company. Only
// approved subjects may be defended.
type Subject struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	ProposerID   string    `json:"proposer_id"`
	StudentID    string    `json:"student_id,omitempty"`
	Status       Status    `json:"status"`
	RejectReason string    `json:"reject_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// StatusError reports an illegal subject status transition.
type StatusError struct {
	From, To Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cannot move subject from %q to %q", e.From, e.To)
}

// NewSubject contains information needed to propose a Subject.
type NewSubject struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	ProposerID  string `json:"proposer_id" validate:"required"`
	StudentID   string `json:"student_id"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	ns.Description = core.CleanString(ns.Description)
	return validate.Struct(ns)
}

type QueryFilter struct {
	Status     Status `query:"status"`
	ProposerID string `query:"proposer_id"`
	StudentID  string `query:"student_id"`
}
