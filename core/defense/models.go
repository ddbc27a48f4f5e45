package defense

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/pfebridge/pfebridge/core"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
)

// transitions is the authoritative status transition table. A defense must
// be accepted before it can be scheduled; scheduled-to-scheduled allows
// idempotent rescheduling. rejected and completed are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusAccepted, StatusRejected},
	StatusAccepted:  {StatusScheduled, StatusRejected},
	StatusScheduled: {StatusScheduled, StatusCompleted, StatusRejected},
	StatusRejected:  {},
	StatusCompleted: {},
}

func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// MaxJurySize caps jury membership on a single defense.
const MaxJurySize = 3

// Defense is one scheduled or pending thesis defense.
type Defense struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	SubjectID string `json:"subject_id"`
	// Date is the scheduled date-time in UTC; null until the defense
	// is scheduled.
	Date         null.Time   `json:"date"`
	Status       Status      `json:"status"`
	Jury         []string    `json:"jury"` // professor IDs, at most MaxJurySize
	AcceptedBy   null.String `json:"accepted_by,omitempty"`
	RejectedBy   null.String `json:"rejected_by,omitempty"`
	RejectReason string      `json:"reject_reason,omitempty"`
	Notes        string      `json:"notes,omitempty"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at"` // UTC
}

// OnJury reports whether the professor already sits on this defense's jury.
func (d Defense) OnJury(professorID string) bool {
	for _, id := range d.Jury {
		if id == professorID {
			return true
		}
	}
	return false
}

// AvailabilityEntry is one (professor, time slot) pairing offered to the
// scheduler, with the professor's load at that slot.
type AvailabilityEntry struct {
	ProfessorID     string `json:"professorId"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Time            string `json:"time"`
	CurrentDefenses int    `json:"currentDefenses"`
	MaxDefenses     int    `json:"maxDefenses"`
}

// StatusError reports an illegal defense status transition.
type StatusError struct {
	From, To Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cannot move defense from %q to %q", e.From, e.To)
}

// CapacityError reports a professor already at max concurrent defenses
// at the requested slot.
type CapacityError struct {
	ProfessorID string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("professor %s is already at maximum defense capacity", e.ProfessorID)
}

// NewDefense contains information needed to request a Defense.
type NewDefense struct {
	StudentID string `json:"student_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	Notes     string `json:"notes"`
}

func (nd *NewDefense) Validate(validate *validator.Validate) error {
	nd.Notes = core.CleanString(nd.Notes)
	return validate.Struct(nd)
}

// ScheduleDefense is the commit request: a chosen date, time and jury for
// an existing defense.
type ScheduleDefense struct {
	DefenseID    string   `json:"defenseId" validate:"required"`
	Date         string   `json:"date" validate:"required"`
	Time         string   `json:"time" validate:"required"`
	ProfessorIDs []string `json:"professorIds" validate:"required"`
}

func (sd *ScheduleDefense) Validate(validate *validator.Validate) error {
	sd.DefenseID = core.CleanString(sd.DefenseID)
	sd.Date = core.CleanString(sd.Date)
	sd.Time = core.CleanString(sd.Time)
	return validate.Struct(sd)
}

type QueryFilter struct {
	Status      Status `query:"status"`
	StudentID   string `query:"student_id"`
	SubjectID   string `query:"subject_id"`
	ProfessorID string `query:"professor_id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Status == "" && qf.StudentID == "" && qf.SubjectID == "" && qf.ProfessorID == ""
}

// ScheduledEvent is emitted after a successful schedule commit.
type ScheduledEvent struct {
	DefenseID    string
	Date         string // YYYY-MM-DD
	Time         string // HH:MM, normalized
	ProfessorIDs []string
}

// EventSink receives scheduling notifications. Implementations must not
// block the caller for long; sending mail happens in the background.
type EventSink interface {
	DefenseScheduled(evt ScheduledEvent)
}
