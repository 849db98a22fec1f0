package ticket

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hyperjump/smartdesk/internal/config"
	"github.com/hyperjump/smartdesk/internal/models"
	"github.com/hyperjump/smartdesk/internal/storage"
)

type fakeTriager struct {
	result models.TriageResult
	err    error
	calls  int
}

func (f *fakeTriager) Triage(_ context.Context, _ models.TriageRequest) (models.TriageResult, error) {
	f.calls++
	return f.result, f.err
}

func newTestService(t *testing.T, tr Triager) (*Service, *storage.SQLiteStorage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "tickets.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewService(store, tr, WithLogger(nil)), store
}

func ptr[T any](v T) *T { return &v }

func TestCreate_TriagesMissingFields(t *testing.T) {
	tr := &fakeTriager{result: models.TriageResult{
		Queue:     models.QueueIT,
		Priority:  models.PriorityHigh,
		Reasoning: "Rule-based: matched IT keyword 'vpn'",
		Source:    models.SourceRuleFallback,
	}}
	svc, _ := newTestService(t, tr)
	ctx := context.Background()
	if err := svc.SeedSLA(ctx, config.SLAConfig{HighMinutes: 240, MediumMinutes: 480, LowMinutes: 1440}); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Create(ctx, &models.TicketInput{Subject: "  VPN down ", Description: "urgent"})
	if err != nil {
		t.Fatal(err)
	}
	if tr.calls != 1 {
		t.Errorf("triage calls = %d, want 1", tr.calls)
	}
	if got.Subject != "VPN down" || got.Queue != models.QueueIT || got.Priority != models.PriorityHigh {
		t.Errorf("unexpected ticket: %+v", got)
	}
	if got.SLAMinutes == nil || *got.SLAMinutes != 240 {
		t.Errorf("SLAMinutes = %v, want 240", got.SLAMinutes)
	}
	if got.Status != models.StatusOpen || got.TriageSource != models.SourceRuleFallback {
		t.Errorf("unexpected status/source: %+v", got)
	}
}

func TestCreate_KeepsSuppliedFields(t *testing.T) {
	tr := &fakeTriager{result: models.TriageResult{Queue: models.QueueIT, Priority: models.PriorityHigh, Source: models.SourceExternal}}
	svc, _ := newTestService(t, tr)
	ctx := context.Background()

	// Only priority is missing: queue is kept, priority comes from triage.
	got, err := svc.Create(ctx, &models.TicketInput{Subject: "Desk broken", Queue: ptr(models.QueueFacilities)})
	if err != nil {
		t.Fatal(err)
	}
	if got.Queue != models.QueueFacilities || got.Priority != models.PriorityHigh {
		t.Errorf("got queue %v priority %v", got.Queue, got.Priority)
	}
	if got.SLAMinutes != nil {
		t.Errorf("SLAMinutes = %v, want nil without configured SLA", *got.SLAMinutes)
	}

	// Both supplied: no triage.
	tr.calls = 0
	got, err = svc.Create(ctx, &models.TicketInput{
		Subject:  "Payroll question",
		Queue:    ptr(models.QueueHR),
		Priority: ptr(models.PriorityLow),
	})
	if err != nil {
		t.Fatal(err)
	}
	if tr.calls != 0 {
		t.Errorf("triage should not be called, got %d calls", tr.calls)
	}
	if got.TriageSource != "" || got.Queue != models.QueueHR || got.Priority != models.PriorityLow {
		t.Errorf("unexpected ticket: %+v", got)
	}
}

func TestCreate_Validation(t *testing.T) {
	tr := &fakeTriager{result: models.TriageResult{Queue: models.QueueOther, Priority: models.PriorityMedium}}
	svc, _ := newTestService(t, tr)
	ctx := context.Background()

	tests := []struct {
		name string
		in   *models.TicketInput
	}{
		{"nil", nil},
		{"blank subject", &models.TicketInput{Subject: "   ", Description: "body"}},
		{"bad queue", &models.TicketInput{Subject: "x", Queue: ptr(models.Queue(9))}},
		{"bad priority", &models.TicketInput{Subject: "x", Priority: ptr(models.Priority(0))}},
		{"unknown creator", &models.TicketInput{Subject: "x", CreatedBy: "ghost"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			if !errors.Is(err, models.ErrInvalidRequest) {
				t.Errorf("err = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestCreate_TriageError(t *testing.T) {
	svc, _ := newTestService(t, &fakeTriager{err: models.ErrInvalidRequest})
	_, err := svc.Create(context.Background(), &models.TicketInput{Subject: "x"})
	if !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("err = %v, want wrapped ErrInvalidRequest", err)
	}
}

func TestLifecycle(t *testing.T) {
	svc, store := newTestService(t, &fakeTriager{result: models.TriageResult{Queue: models.QueueIT, Priority: models.PriorityMedium}})
	ctx := context.Background()

	requester := &models.User{Username: "ann", Role: models.RoleUser}
	agent := &models.User{Username: "bob", Role: models.RoleAgent}
	for _, u := range []*models.User{requester, agent} {
		if err := svc.CreateUser(ctx, u); err != nil {
			t.Fatal(err)
		}
	}

	tk, err := svc.Create(ctx, &models.TicketInput{Subject: "Laptop slow", CreatedBy: requester.ID})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Assign(ctx, tk.ID, requester.ID); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("assigning a non-agent: err = %v, want ErrInvalidRequest", err)
	}
	assigned, err := svc.Assign(ctx, tk.ID, agent.ID)
	if err != nil {
		t.Fatal(err)
	}
	if assigned.AssignedTo == nil || *assigned.AssignedTo != agent.ID {
		t.Errorf("AssignedTo = %v, want %s", assigned.AssignedTo, agent.ID)
	}
	if _, err := svc.Assign(ctx, "missing", agent.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("assigning missing ticket: err = %v, want ErrNotFound", err)
	}

	if _, err := svc.AddComment(ctx, tk.ID, agent.ID, "  Rebooted it  "); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddComment(ctx, tk.ID, agent.ID, " "); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("blank comment: err = %v, want ErrInvalidRequest", err)
	}
	if _, err := svc.AddComment(ctx, tk.ID, "ghost", "hi"); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("unknown author: err = %v, want ErrInvalidRequest", err)
	}
	if _, err := svc.AddComment(ctx, "missing", agent.ID, "hi"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing ticket: err = %v, want ErrNotFound", err)
	}

	closed, err := svc.Close(ctx, tk.ID)
	if err != nil {
		t.Fatal(err)
	}
	if closed.Status != models.StatusClosed || closed.ClosedAt == nil {
		t.Errorf("unexpected closed ticket: %+v", closed)
	}
	if _, err := svc.Close(ctx, tk.ID); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("closing twice: err = %v, want ErrInvalidRequest", err)
	}

	got, comments, err := svc.Get(ctx, tk.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != tk.ID || len(comments) != 1 || comments[0].Body != "Rebooted it" {
		t.Errorf("unexpected ticket %+v comments %+v", got, comments)
	}

	open, err := svc.List(ctx, models.StatusOpen, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 0 {
		t.Errorf("open tickets = %d, want 0", len(open))
	}
	if _, err := svc.List(ctx, models.TicketStatus(7), 0); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("bad status: err = %v, want ErrInvalidRequest", err)
	}

	outcomes, err := store.ListTicketOutcomes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 1 || !outcomes[0].Closed {
		t.Errorf("unexpected outcomes: %+v", outcomes)
	}
}

func TestCreateUser_Validation(t *testing.T) {
	svc, _ := newTestService(t, &fakeTriager{})
	ctx := context.Background()
	for _, u := range []*models.User{nil, {Username: " ", Role: models.RoleUser}, {Username: "x", Role: 0}} {
		if err := svc.CreateUser(ctx, u); !errors.Is(err, models.ErrInvalidRequest) {
			t.Errorf("CreateUser(%+v) err = %v, want ErrInvalidRequest", u, err)
		}
	}
}

func TestSLA(t *testing.T) {
	svc, _ := newTestService(t, &fakeTriager{})
	ctx := context.Background()

	if err := svc.SetSLA(ctx, models.PriorityHigh, 60); err != nil {
		t.Fatal(err)
	}
	if err := svc.SeedSLA(ctx, config.SLAConfig{HighMinutes: 240, MediumMinutes: 480, LowMinutes: 1440}); err != nil {
		t.Fatal(err)
	}
	got, err := svc.ListSLA(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []models.SLATime{
		{Priority: models.PriorityHigh, Minutes: 60},
		{Priority: models.PriorityMedium, Minutes: 480},
		{Priority: models.PriorityLow, Minutes: 1440},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListSLA mismatch (-want +got):\n%s", diff)
	}

	if err := svc.SetSLA(ctx, models.Priority(4), 10); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("bad priority: err = %v", err)
	}
	if err := svc.SetSLA(ctx, models.PriorityLow, -1); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("negative minutes: err = %v", err)
	}
}
