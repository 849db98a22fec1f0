// Package analytics computes dashboard metrics over the ticket store.
package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hyperjump/smartdesk/internal/models"
	"go.uber.org/zap"
)

// Source is the read side of the ticket store used for analytics.
type Source interface {
	ListTicketOutcomes(ctx context.Context) ([]models.TicketOutcome, error)
	ListUsersByRole(ctx context.Context, role models.Role) ([]*models.User, error)
	CountOpenAssigned(ctx context.Context, agentID string) (int, error)
}

// Aggregator computes metrics on demand. Nothing is cached.
type Aggregator struct {
	source Source
	logger *zap.Logger
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) AggregatorOption {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAggregator creates an aggregator over source.
func NewAggregator(source Source, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{source: source, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SLACompliance returns the percentage of closed tickets resolved within their allowance.
func (a *Aggregator) SLACompliance(ctx context.Context) (float64, error) {
	outcomes, err := a.source.ListTicketOutcomes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load ticket outcomes: %w", err)
	}
	return SLACompliance(outcomes), nil
}

// FCRRate returns the percentage of closed tickets resolved with a single agent reply.
func (a *Aggregator) FCRRate(ctx context.Context) (float64, error) {
	outcomes, err := a.source.ListTicketOutcomes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load ticket outcomes: %w", err)
	}
	return FCRRate(outcomes), nil
}

// Workload returns the open assigned ticket count of every agent, ordered by username.
func (a *Aggregator) Workload(ctx context.Context) ([]models.AgentWorkload, error) {
	agents, err := a.source.ListUsersByRole(ctx, models.RoleAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	out := make([]models.AgentWorkload, 0, len(agents))
	for _, agent := range agents {
		n, err := a.source.CountOpenAssigned(ctx, agent.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count tickets for %s: %w", agent.Username, err)
		}
		out = append(out, models.AgentWorkload{AgentID: agent.ID, Agent: agent.Username, OpenTicketCount: n})
	}
	return out, nil
}

// Summary returns every metric from a single scan of the outcomes.
func (a *Aggregator) Summary(ctx context.Context) (*models.AnalyticsSummary, error) {
	outcomes, err := a.source.ListTicketOutcomes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket outcomes: %w", err)
	}
	workload, err := a.Workload(ctx)
	if err != nil {
		return nil, err
	}

	s := &models.AnalyticsSummary{
		SLACompliance: SLACompliance(outcomes),
		FCRRate:       FCRRate(outcomes),
		AgentWorkload: workload,
		TotalTickets:  len(outcomes),
	}
	for _, o := range outcomes {
		if o.Closed {
			s.ClosedTickets++
		} else {
			s.OpenTickets++
		}
	}
	a.logger.Debug("Computed analytics",
		zap.Int("tickets", s.TotalTickets),
		zap.Float64("sla_compliance", s.SLACompliance),
		zap.Float64("fcr_rate", s.FCRRate))
	return s, nil
}

// SLACompliance is the percentage of closed tickets with an allowance whose
// last activity falls within it. A closed ticket with no activity is not compliant.
func SLACompliance(outcomes []models.TicketOutcome) float64 {
	var total, met int
	for _, o := range outcomes {
		if !o.Closed || o.SLAAllowanceMinutes == nil {
			continue
		}
		total++
		if o.LastActivityAt == nil {
			continue
		}
		allowance := time.Duration(*o.SLAAllowanceMinutes) * time.Minute
		if o.LastActivityAt.Sub(o.CreatedAt) <= allowance {
			met++
		}
	}
	return percent(met, total)
}

// FCRRate is the percentage of closed tickets with exactly one agent comment.
func FCRRate(outcomes []models.TicketOutcome) float64 {
	var total, hits int
	for _, o := range outcomes {
		if !o.Closed {
			continue
		}
		total++
		if len(o.RespondingAgentIDs) == 1 {
			hits++
		}
	}
	return percent(hits, total)
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(n) / float64(total) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
