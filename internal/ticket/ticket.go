// Package ticket implements the helpdesk collaborators around the triage
// engine: ticket creation and lifecycle, users and SLA settings.
package ticket

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/smartdesk/internal/config"
	"github.com/hyperjump/smartdesk/internal/models"
	"github.com/hyperjump/smartdesk/internal/storage"
	"go.uber.org/zap"
)

// Triager classifies a ticket into a queue and priority.
type Triager interface {
	Triage(ctx context.Context, req models.TriageRequest) (models.TriageResult, error)
}

// Service manages tickets, comments, users and SLA allowances.
type Service struct {
	store  storage.TicketStore
	triage Triager
	logger *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService returns a ticket service. triage fills in a missing queue or
// priority on creation.
func NewService(store storage.TicketStore, triage Triager, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		triage: triage,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Create stores a new open ticket. A missing queue or priority is taken from
// triage; supplied values are kept. The SLA allowance of the final priority is
// attached when one is configured.
func (s *Service) Create(ctx context.Context, in *models.TicketInput) (*models.Ticket, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: ticket is required", models.ErrInvalidRequest)
	}
	t := &models.Ticket{
		Subject:     strings.TrimSpace(in.Subject),
		Description: strings.TrimSpace(in.Description),
		CreatedBy:   strings.TrimSpace(in.CreatedBy),
	}
	if t.Subject == "" {
		return nil, fmt.Errorf("%w: subject is required", models.ErrInvalidRequest)
	}
	if in.Queue != nil {
		if !in.Queue.Valid() {
			return nil, fmt.Errorf("%w: unknown queue %d", models.ErrInvalidRequest, *in.Queue)
		}
		t.Queue = *in.Queue
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %d", models.ErrInvalidRequest, *in.Priority)
		}
		t.Priority = *in.Priority
	}
	if t.CreatedBy != "" {
		if _, err := s.requireUser(ctx, t.CreatedBy); err != nil {
			return nil, err
		}
	}

	if in.Queue == nil || in.Priority == nil {
		result, err := s.triage.Triage(ctx, models.TriageRequest{Subject: t.Subject, Body: t.Description})
		if err != nil {
			return nil, fmt.Errorf("failed to triage ticket: %w", err)
		}
		if in.Queue == nil {
			t.Queue = result.Queue
		}
		if in.Priority == nil {
			t.Priority = result.Priority
		}
		t.TriageSource = result.Source
		t.TriageReasoning = result.Reasoning
	}

	minutes, err := s.store.GetSLA(ctx, t.Priority)
	if err != nil {
		return nil, fmt.Errorf("failed to load SLA: %w", err)
	}
	t.SLAMinutes = minutes

	if err := s.store.CreateTicket(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("ticket created",
		zap.String("id", t.ID),
		zap.Stringer("queue", t.Queue),
		zap.Stringer("priority", t.Priority),
		zap.String("triage_source", string(t.TriageSource)),
	)
	return t, nil
}

// Get returns a ticket with its comments.
func (s *Service) Get(ctx context.Context, id string) (*models.Ticket, []*models.Comment, error) {
	t, err := s.store.GetTicket(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	comments, err := s.store.ListComments(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return t, comments, nil
}

// List returns tickets newest first. A zero status lists every ticket.
func (s *Service) List(ctx context.Context, status models.TicketStatus, limit int) ([]*models.Ticket, error) {
	if status != 0 && status != models.StatusOpen && status != models.StatusClosed {
		return nil, fmt.Errorf("%w: unknown status %d", models.ErrInvalidRequest, status)
	}
	return s.store.ListTickets(ctx, status, limit)
}

// AddComment appends a comment from an existing user to an existing ticket.
func (s *Service) AddComment(ctx context.Context, ticketID, authorID, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: comment body is required", models.ErrInvalidRequest)
	}
	if _, err := s.store.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	if _, err := s.requireUser(ctx, authorID); err != nil {
		return nil, err
	}
	c := &models.Comment{TicketID: ticketID, AuthorID: authorID, Body: body}
	if err := s.store.AddComment(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Debug("comment added", zap.String("ticket_id", ticketID), zap.String("author_id", authorID))
	return c, nil
}

// Assign hands a ticket to an agent-role account.
func (s *Service) Assign(ctx context.Context, ticketID, agentID string) (*models.Ticket, error) {
	agent, err := s.requireUser(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent.Role != models.RoleAgent {
		return nil, fmt.Errorf("%w: user %s is not an agent", models.ErrInvalidRequest, agentID)
	}
	if err := s.store.AssignTicket(ctx, ticketID, agentID); err != nil {
		return nil, err
	}
	s.logger.Debug("ticket assigned", zap.String("ticket_id", ticketID), zap.String("agent_id", agentID))
	return s.store.GetTicket(ctx, ticketID)
}

// Close marks a ticket closed. Closing a closed ticket is an error.
func (s *Service) Close(ctx context.Context, ticketID string) (*models.Ticket, error) {
	t, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if t.Status == models.StatusClosed {
		return nil, fmt.Errorf("%w: ticket %s is already closed", models.ErrInvalidRequest, ticketID)
	}
	if err := s.store.CloseTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	s.logger.Debug("ticket closed", zap.String("ticket_id", ticketID))
	return s.store.GetTicket(ctx, ticketID)
}

// CreateUser registers an account.
func (s *Service) CreateUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return fmt.Errorf("%w: user is required", models.ErrInvalidRequest)
	}
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.TrimSpace(u.Email)
	if u.Username == "" {
		return fmt.Errorf("%w: username is required", models.ErrInvalidRequest)
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%w: unknown role %d", models.ErrInvalidRequest, u.Role)
	}
	return s.store.CreateUser(ctx, u)
}

// SetSLA sets the allowance in minutes for a priority.
func (s *Service) SetSLA(ctx context.Context, priority models.Priority, minutes int) error {
	if !priority.Valid() {
		return fmt.Errorf("%w: unknown priority %d", models.ErrInvalidRequest, priority)
	}
	if minutes < 0 {
		return fmt.Errorf("%w: minutes must not be negative", models.ErrInvalidRequest)
	}
	if err := s.store.SetSLA(ctx, priority, minutes); err != nil {
		return fmt.Errorf("failed to set SLA: %w", err)
	}
	s.logger.Info("SLA updated", zap.Stringer("priority", priority), zap.Int("minutes", minutes))
	return nil
}

// ListSLA returns the configured allowances.
func (s *Service) ListSLA(ctx context.Context) ([]models.SLATime, error) {
	return s.store.ListSLA(ctx)
}

// SeedSLA stores the configured allowances for priorities that have none yet.
// Values changed at runtime are left alone.
func (s *Service) SeedSLA(ctx context.Context, cfg config.SLAConfig) error {
	defaults := []models.SLATime{
		{Priority: models.PriorityHigh, Minutes: cfg.HighMinutes},
		{Priority: models.PriorityMedium, Minutes: cfg.MediumMinutes},
		{Priority: models.PriorityLow, Minutes: cfg.LowMinutes},
	}
	for _, d := range defaults {
		existing, err := s.store.GetSLA(ctx, d.Priority)
		if err != nil {
			return fmt.Errorf("failed to load SLA: %w", err)
		}
		if existing != nil {
			continue
		}
		if err := s.SetSLA(ctx, d.Priority, d.Minutes); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) requireUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown user %s", models.ErrInvalidRequest, id)
	}
	return u, err
}
