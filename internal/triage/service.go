package triage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/smartdesk/internal/metrics"
	"github.com/hyperjump/smartdesk/internal/models"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single external classifier call.
const DefaultTimeout = 15 * time.Second

// Service triages tickets with an optional external classifier and the rule
// classifier as the fallback.
type Service struct {
	rules    *RuleClassifier
	external Classifier
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithExternal enables the external classifier. Without it every ticket is
// classified by rules.
func WithExternal(c Classifier) ServiceOption {
	return func(s *Service) { s.external = c }
}

// WithTimeout sets the deadline for the external call.
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithMetrics records triage outcomes.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService returns a triage service using rules as the fallback classifier.
func NewService(rules *RuleClassifier, opts ...ServiceOption) *Service {
	s := &Service{
		rules:   rules,
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// ExternalEnabled reports whether an external classifier is configured.
func (s *Service) ExternalEnabled() bool {
	return s.external != nil
}

// Triage classifies a ticket. The external classifier is called at most once;
// on any failure the rule result is returned unchanged.
func (s *Service) Triage(ctx context.Context, req models.TriageRequest) (models.TriageResult, error) {
	if req.Blank() {
		return models.TriageResult{}, fmt.Errorf("%w: subject or body is required", models.ErrInvalidRequest)
	}

	result := s.classify(ctx, req)
	s.metrics.ObserveTriage(string(result.Source), result.Queue.String())
	s.logger.Debug("ticket triaged",
		zap.String("source", string(result.Source)),
		zap.Stringer("queue", result.Queue),
		zap.Stringer("priority", result.Priority),
	)
	return result, nil
}

func (s *Service) classify(ctx context.Context, req models.TriageRequest) models.TriageResult {
	if s.external == nil {
		return s.rules.Classify(req.Subject, req.Body)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result, err := s.external.Classify(callCtx, req)
	if err == nil && (!result.Queue.Valid() || !result.Priority.Valid()) {
		err = fmt.Errorf("%w: queue %d priority %d out of range", ErrMalformedReply, result.Queue, result.Priority)
	}
	if err != nil {
		s.metrics.ObserveProviderFailure("classifier")
		s.logger.Warn("external classifier failed, using rules", zap.Error(err))
		return s.rules.Classify(req.Subject, req.Body)
	}
	result.Source = models.SourceExternal
	result.Reasoning = strings.TrimSpace(result.Reasoning)
	if result.Reasoning == "" {
		result.Reasoning = "no reasoning given"
	}
	if !strings.HasPrefix(result.Reasoning, externalPrefix) {
		result.Reasoning = externalPrefix + result.Reasoning
	}
	return result
}
