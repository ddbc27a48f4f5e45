package professor

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pfebridge/pfebridge/core"
)

// Window is a recurring weekly availability window: the time slots a
// professor can sit on a jury for, on a given weekday. Times come from
// legacy calendar data and may be "H:MM" or "HH:MM"; they are normalized
// on the way out, never trusted on the way in.
type Window struct {
	Weekday time.Weekday `json:"weekday"`
	Times   []string     `json:"times"`
}

type Professor struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id,omitempty"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department,omitempty"`
	// MaxDefenses is the professor's concurrent defense capacity;
	// 0 means "use the configured default".
	MaxDefenses  int       `json:"max_defenses"`
	Availability []Window  `json:"availability"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// Capacity resolves the effective max concurrent defenses.
func (p Professor) Capacity(dflt int) int {
	if p.MaxDefenses > 0 {
		return p.MaxDefenses
	}
	return dflt
}

// TimesOn returns the professor's raw slot times on the given weekday.
func (p Professor) TimesOn(wd time.Weekday) []string {
	var times []string
	for _, w := range p.Availability {
		if w.Weekday == wd {
			times = append(times, w.Times...)
		}
	}
	return times
}

// NewProfessor contains information needed to register a Professor.
type NewProfessor struct {
	UserID       string   `json:"user_id"`
	Name         string   `json:"name" validate:"required"`
	Email        string   `json:"email" validate:"required,email"`
	Department   string   `json:"department"`
	MaxDefenses  int      `json:"max_defenses" validate:"omitempty,min=1"`
	Availability []Window `json:"availability"`
}

func (np *NewProfessor) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.Email = core.CleanString(np.Email, true /* lower */)
	return validate.Struct(np)
}

// UpdateProfessor defines the mutable Professor fields.
type UpdateProfessor struct {
	Name         string   `json:"name"`
	Email        string   `json:"email" validate:"omitempty,email"`
	Department   string   `json:"department"`
	MaxDefenses  *int     `json:"max_defenses" validate:"omitempty,min=1"`
	Availability []Window `json:"availability"`
}

func (up *UpdateProfessor) Validate(orig Professor, validate *validator.Validate) error {
	if name := core.CleanString(up.Name); name != "" {
		up.Name = name
	} else {
		up.Name = orig.Name
	}
	if email := core.CleanString(up.Email, true /* lower */); email != "" {
		up.Email = email
	} else {
		up.Email = orig.Email
	}
	return validate.Struct(up)
}
