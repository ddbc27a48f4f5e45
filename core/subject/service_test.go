package subject_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/pfebridge/pfebridge/core"
	"github.com/pfebridge/pfebridge/core/subject"
	dummydb "github.com/pfebridge/pfebridge/storage/database/dummy"
)

var ctx = context.Background()

func setup(t *testing.T) *subject.Service {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	return subject.NewService(dummydb.NewSubjectRepository(db))
}

func propose(t *testing.T, svc *subject.Service) subject.Subject {
	t.Helper()
	subj, err := svc.Propose(ctx, subject.NewSubject{
		Title:      "Streaming log ingestion pipeline",
		ProposerID: "prof-1",
	})
	if err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	return subj
}

func TestService_Propose(t *testing.T) {
	svc := setup(t)

	subj := propose(t, svc)
	if subj.ID == "" {
		t.Error("Propose() returned empty ID")
	}
	if subj.Status != subject.StatusPending {
		t.Errorf("Propose() status = %s, want %s", subj.Status, subject.StatusPending)
	}

	got, err := svc.GetByID(ctx, subj.ID)
	if err != nil || got.Title != subj.Title {
		t.Errorf("GetByID() = %+v, %v", got, err)
	}
	if _, err = svc.GetByID(ctx, "nope"); err != subject.ErrNotFound {
		t.Errorf("GetByID() error = %v, want %v", err, subject.ErrNotFound)
	}
}

func TestService_Approve(t *testing.T) {
	svc := setup(t)
	subj := propose(t, svc)

	approved, err := svc.Approve(ctx, subj.ID)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if approved.Status != subject.StatusApproved {
		t.Errorf("Approve() status = %s, want %s", approved.Status, subject.StatusApproved)
	}

	// approved is terminal for moderation
	_, err = svc.Approve(ctx, subj.ID)
	var sErr *subject.StatusError
	if !errors.As(err, &sErr) {
		t.Fatalf("Approve() error = %v (%T), want *subject.StatusError", err, err)
	}
	if sErr.From != subject.StatusApproved || sErr.To != subject.StatusApproved {
		t.Errorf("StatusError = %v", sErr)
	}
}

func TestService_Reject(t *testing.T) {
	svc := setup(t)
	subj := propose(t, svc)

	t.Run("reason required", func(t *testing.T) {
		_, err := svc.Reject(ctx, subj.ID, "  ")
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("Reject() error = %v (%T), want *core.ValidationError", err, err)
		}
	})

	t.Run("ok", func(t *testing.T) {
		rejected, err := svc.Reject(ctx, subj.ID, "out of scope")
		if err != nil {
			t.Fatalf("Reject() error = %v", err)
		}
		if rejected.Status != subject.StatusRejected || rejected.RejectReason != "out of scope" {
			t.Errorf("Reject() = %+v", rejected)
		}
	})

	t.Run("already rejected", func(t *testing.T) {
		_, err := svc.Reject(ctx, subj.ID, "again")
		var sErr *subject.StatusError
		if !errors.As(err, &sErr) {
			t.Errorf("Reject() error = %v (%T), want *subject.StatusError", err, err)
		}
	})
}

func TestService_AssignStudent(t *testing.T) {
	svc := setup(t)
	subj := propose(t, svc)

	assigned, err := svc.AssignStudent(ctx, subj.ID, "student-9")
	if err != nil {
		t.Fatalf("AssignStudent() error = %v", err)
	}
	if assigned.StudentID != "student-9" {
		t.Errorf("AssignStudent() studentID = %q, want student-9", assigned.StudentID)
	}

	if _, err = svc.AssignStudent(ctx, "nope", "student-9"); err != subject.ErrNotFound {
		t.Errorf("AssignStudent() error = %v, want %v", err, subject.ErrNotFound)
	}
}

func TestService_Filter(t *testing.T) {
	svc := setup(t)
	a := propose(t, svc)
	propose(t, svc)
	if _, err := svc.Approve(ctx, a.ID); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	approved, err := svc.Filter(ctx, subject.QueryFilter{Status: subject.StatusApproved})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if len(approved) != 1 || approved[0].ID != a.ID {
		t.Errorf("Filter(approved) = %+v, want only %s", approved, a.ID)
	}

	all, err := svc.Filter(ctx, subject.QueryFilter{ProposerID: "prof-1"})
	if err != nil || len(all) != 2 {
		t.Errorf("Filter(proposer) = %d subjects, %v; want 2", len(all), err)
	}
}
