package defense

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/pfebridge/pfebridge/core"
	"github.com/pfebridge/pfebridge/core/professor"
	"github.com/pfebridge/pfebridge/core/subject"
)

var (
	// errors
	ErrNotFound = errors.New("defense not found")

	dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRegex = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

	errInvalidDate = errors.New("invalid date format")
	errInvalidTime = errors.New("invalid time format")
)

const dateLayout = "2006-01-02"

type (
	Repository interface {
		CreateDefense(ctx context.Context, def Defense) (Defense, error)
		GetDefenseByID(ctx context.Context, id string) (Defense, error)
		FilterDefenses(ctx context.Context, filter QueryFilter) ([]Defense, error)
		// UpdateDefense persists status/actor/notes mutations. Scheduling
		// commits go through ScheduleDefense instead.
		UpdateDefense(ctx context.Context, def Defense) (Defense, error)
		// CountScheduledAt counts the scheduled defenses sitting on the given
		// professor's calendar at the exact slot, excluding excludeID.
		CountScheduledAt(ctx context.Context, professorID string, at time.Time, excludeID string) (int, error)
		// CountActiveDefenses counts all scheduled defenses assigned to the
		// professor, regardless of slot.
		CountActiveDefenses(ctx context.Context, professorID string) (int, error)
		// ScheduleDefense atomically sets the defense's date and jury and
		// flips its status to scheduled, re-checking every jury member's
		// capacity at the slot against caps under the same lock/transaction.
		// Returns *CapacityError when a member is at capacity.
		ScheduleDefense(ctx context.Context, id string, at time.Time, jury []string, caps map[string]int) (Defense, error)
	}

	Service struct {
		repo     Repository
		profRepo professor.Repository
		subjRepo subject.Repository
		sink     EventSink
		logger   core.Logger
		conf     *core.Config
	}
)

func NewService(
	repo Repository,
	profRepo professor.Repository,
	subjRepo subject.Repository,
	sink EventSink,
	logger core.Logger,
	conf *core.Config,
) *Service {
	return &Service{
		repo:     repo,
		profRepo: profRepo,
		subjRepo: subjRepo,
		sink:     sink,
		logger:   logger,
		conf:     conf,
	}
}

// Request creates a pending defense for an approved subject.
func (svc *Service) Request(ctx context.Context, nd NewDefense) (Defense, error) {
	subj, err := svc.subjRepo.GetSubjectByID(ctx, nd.SubjectID)
	if err != nil {
		return Defense{}, err
	}
	if subj.Status != subject.StatusApproved {
		return Defense{}, core.NewValidationError(errors.New("subject is not approved for defense"),
			core.FieldError{Field: "subject_id", Error: "subject is not approved for defense"})
	}

	// no second open defense for the same (student, subject)
	open, err := svc.repo.FilterDefenses(ctx, QueryFilter{StudentID: nd.StudentID, SubjectID: nd.SubjectID})
	if err != nil {
		return Defense{}, errors.Wrap(err, "checking existing defenses")
	}
	for _, d := range open {
		if !d.Status.IsTerminal() {
			return Defense{}, core.NewValidationError(errors.New("an open defense already exists for this subject"))
		}
	}

	now := time.Now().UTC()
	def := Defense{
		StudentID: nd.StudentID,
		SubjectID: nd.SubjectID,
		Status:    StatusPending,
		Notes:     nd.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateDefense(ctx, def)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Defense, error) {
	return svc.repo.GetDefenseByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Defense, error) {
	return svc.repo.FilterDefenses(ctx, filter)
}

// Availability computes, per day of the inclusive [startDate, endDate]
// range, the professors free at each of their availability slots: those
// whose scheduled-defense count at the slot is below their capacity.
// A failed load lookup skips that entry and moves on; the remaining days
// still come back (partial results beat a dead calendar).
func (svc *Service) Availability(ctx context.Context, startDate, endDate string) (map[string][]AvailabilityEntry, error) {
	start, err := parseDate(startDate)
	if err != nil {
		return nil, core.NewValidationError(errInvalidDate, core.FieldError{Field: "startDate", Error: errInvalidDate.Error()})
	}
	end, err := parseDate(endDate)
	if err != nil {
		return nil, core.NewValidationError(errInvalidDate, core.FieldError{Field: "endDate", Error: errInvalidDate.Error()})
	}
	if end.Before(start) {
		return nil, core.NewValidationError(errors.New("startDate must not be after endDate"))
	}

	profs, err := svc.profRepo.QueryAllProfessors(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying professors")
	}

	dflt := svc.conf.Defense.DefaultProfessorCapacity
	out := make(map[string][]AvailabilityEntry)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		var entries []AvailabilityEntry
		for _, prof := range profs {
			max := prof.Capacity(dflt)
			for _, raw := range prof.TimesOn(day.Weekday()) {
				slot := NormalizeTime(raw)
				at, ok := combine(day, slot)
				if !ok { // malformed legacy slot, nothing to offer here
					continue
				}
				cnt, err := svc.repo.CountScheduledAt(ctx, prof.ID, at, "")
				if err != nil {
					svc.logger.Warn(
						fmt.Sprintf("availability: skipping %s at %s %s: %v", prof.ID, day.Format(dateLayout), slot, err), err)
					continue
				}
				if cnt < max {
					entries = append(entries, AvailabilityEntry{
						ProfessorID:     prof.ID,
						Name:            prof.Name,
						Email:           prof.Email,
						Time:            raw,
						CurrentDefenses: cnt,
						MaxDefenses:     max,
					})
				}
			}
		}
		entries = DedupeProfessorsForDay(entries)
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].Time != entries[j].Time {
				return entries[i].Time < entries[j].Time
			}
			return entries[i].Name < entries[j].Name
		})
		if len(entries) > 0 {
			out[day.Format(dateLayout)] = entries
		}
	}
	return out, nil
}

// AvailableProfessors is the single-defense variant of Availability: it
// lists professors eligible for the given defense at (date, time), judged
// on their total active defense load rather than the per-slot count.
// Professors already on the defense's jury stay listed so an idempotent
// reschedule can keep them.
func (svc *Service) AvailableProfessors(ctx context.Context, defenseID, date, tm string) ([]AvailabilityEntry, error) {
	def, err := svc.repo.GetDefenseByID(ctx, defenseID)
	if err != nil {
		return nil, err
	}
	if _, err := parseDate(date); err != nil {
		return nil, core.NewValidationError(errInvalidDate, core.FieldError{Field: "date", Error: errInvalidDate.Error()})
	}
	if !timeRegex.MatchString(tm) {
		return nil, core.NewValidationError(errInvalidTime, core.FieldError{Field: "time", Error: errInvalidTime.Error()})
	}

	profs, err := svc.profRepo.QueryAllProfessors(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying professors")
	}

	slot := NormalizeTime(tm)
	dflt := svc.conf.Defense.DefaultProfessorCapacity
	entries := make([]AvailabilityEntry, 0, len(profs))
	for _, prof := range profs {
		cnt, err := svc.repo.CountActiveDefenses(ctx, prof.ID)
		if err != nil {
			svc.logger.Warn(fmt.Sprintf("available professors: skipping %s: %v", prof.ID, err), err)
			continue
		}
		max := prof.Capacity(dflt)
		if cnt < max || def.OnJury(prof.ID) {
			entries = append(entries, AvailabilityEntry{
				ProfessorID:     prof.ID,
				Name:            prof.Name,
				Email:           prof.Email,
				Time:            slot,
				CurrentDefenses: cnt,
				MaxDefenses:     max,
			})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Schedule commits a chosen date, time and jury to a defense.
// Preconditions are checked in order and the first failure wins: defense
// existence, date format, time format, jury size, status transition, then
// per-professor capacity (re-validated at commit time inside the
// repository's transaction, not trusted from the earlier availability
// read). Either the whole commit lands or none of it does.
func (svc *Service) Schedule(ctx context.Context, sd ScheduleDefense) (Defense, error) {
	def, err := svc.repo.GetDefenseByID(ctx, sd.DefenseID)
	if err != nil {
		return Defense{}, err
	}

	day, err := parseDate(sd.Date)
	if err != nil {
		return Defense{}, core.NewValidationError(errInvalidDate, core.FieldError{Field: "date", Error: errInvalidDate.Error()})
	}
	if !timeRegex.MatchString(sd.Time) {
		return Defense{}, core.NewValidationError(errInvalidTime, core.FieldError{Field: "time", Error: errInvalidTime.Error()})
	}

	maxJury := svc.conf.Defense.MaxJurySize
	if maxJury <= 0 || maxJury > MaxJurySize {
		maxJury = MaxJurySize
	}
	if n := len(sd.ProfessorIDs); n < 1 || n > maxJury {
		return Defense{}, core.NewValidationError(
			fmt.Errorf("a jury must have between 1 and %d members", maxJury),
			core.FieldError{Field: "professorIds", Error: fmt.Sprintf("a jury must have between 1 and %d members", maxJury)})
	}
	seen := make(map[string]struct{}, len(sd.ProfessorIDs))
	for _, pid := range sd.ProfessorIDs {
		if _, ok := seen[pid]; ok {
			return Defense{}, core.NewValidationError(errors.New("duplicate jury member"),
				core.FieldError{Field: "professorIds", Error: "duplicate jury member"})
		}
		seen[pid] = struct{}{}
	}

	if !def.Status.CanTransition(StatusScheduled) {
		return Defense{}, &StatusError{From: def.Status, To: StatusScheduled}
	}

	slot := NormalizeTime(sd.Time)
	at, _ := combine(day, slot)

	dflt := svc.conf.Defense.DefaultProfessorCapacity
	caps := make(map[string]int, len(sd.ProfessorIDs))
	for _, pid := range sd.ProfessorIDs {
		prof, err := svc.profRepo.GetProfessorByID(ctx, pid)
		if err != nil {
			return Defense{}, err
		}
		caps[pid] = prof.Capacity(dflt)
	}

	updated, err := svc.repo.ScheduleDefense(ctx, def.ID, at, sd.ProfessorIDs, caps)
	if err != nil {
		return Defense{}, err
	}

	if svc.sink != nil {
		svc.sink.DefenseScheduled(ScheduledEvent{
			DefenseID:    updated.ID,
			Date:         day.Format(dateLayout),
			Time:         slot,
			ProfessorIDs: sd.ProfessorIDs,
		})
	}
	return updated, nil
}

// Accept moves a pending defense to accepted, recording the actor.
func (svc *Service) Accept(ctx context.Context, id, actorID string) (Defense, error) {
	def, err := svc.repo.GetDefenseByID(ctx, id)
	if err != nil {
		return Defense{}, err
	}
	if !def.Status.CanTransition(StatusAccepted) {
		return Defense{}, &StatusError{From: def.Status, To: StatusAccepted}
	}
	def.Status = StatusAccepted
	def.AcceptedBy.SetValid(actorID)
	def.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateDefense(ctx, def)
}

// Reject moves a non-terminal defense to rejected. A reason is mandatory.
func (svc *Service) Reject(ctx context.Context, id, actorID, reason string) (Defense, error) {
	reason = core.CleanString(reason)
	if reason == "" {
		return Defense{}, core.NewValidationError(errors.New("a rejection reason is required"),
			core.FieldError{Field: "reason", Error: "this field is required"})
	}
	def, err := svc.repo.GetDefenseByID(ctx, id)
	if err != nil {
		return Defense{}, err
	}
	if !def.Status.CanTransition(StatusRejected) {
		return Defense{}, &StatusError{From: def.Status, To: StatusRejected}
	}
	def.Status = StatusRejected
	def.RejectedBy.SetValid(actorID)
	def.RejectReason = reason
	def.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateDefense(ctx, def)
}

// Complete closes out a scheduled defense.
func (svc *Service) Complete(ctx context.Context, id string) (Defense, error) {
	def, err := svc.repo.GetDefenseByID(ctx, id)
	if err != nil {
		return Defense{}, err
	}
	if !def.Status.CanTransition(StatusCompleted) {
		return Defense{}, &StatusError{From: def.Status, To: StatusCompleted}
	}
	def.Status = StatusCompleted
	def.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateDefense(ctx, def)
}

// parseDate parses a strict YYYY-MM-DD calendar date.
// "2025-13-40" matches the shape but is no date; both failures count as
// format errors.
func parseDate(s string) (time.Time, error) {
	if !dateRegex.MatchString(s) {
		return time.Time{}, errInvalidDate
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, errInvalidDate
	}
	return t.UTC(), nil
}

// combine builds the UTC timestamp for a day plus a normalized "HH:MM" slot.
func combine(day time.Time, slot string) (time.Time, bool) {
	t, err := time.Parse("15:04", slot)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), true
}
