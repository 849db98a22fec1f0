// Package assist answers helpdesk questions with a language model grounded in
// knowledge articles, and decides when to offer ticket creation instead.
package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/smartdesk/internal/metrics"
	"github.com/hyperjump/smartdesk/internal/models"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single generator call.
const DefaultTimeout = 30 * time.Second

// ContextArticles is the number of articles placed in the prompt.
const ContextArticles = 5

const (
	unconfiguredReply = "I'm sorry, the assistant is not configured right now. Please create a ticket and an agent will help you."
	unavailableReply  = "I'm having trouble connecting to the AI service right now. Please try again or create a ticket."
)

// lowConfidencePhrases in a reply mean the assistant could not help.
var lowConfidencePhrases = []string{
	"create a ticket", "submit a ticket", "don't have information",
	"contact support", "don't know", "unable to help",
}

const promptTemplate = `You are SmartDesk, a helpful, professional and friendly IT service desk assistant.
Help employees resolve their issues using the knowledge base articles below.

Instructions:
1. Answer the question using only the knowledge base below.
2. If the knowledge base contains the answer, explain it clearly step by step.
3. If it does not, politely say you don't have that information and suggest they create a ticket.
4. Be concise but conversational. Do not mention "context" or "articles", just give the information.
5. If the user only greets you, greet them warmly and ask how you can help.

Knowledge base:
%s
User question: %s
`

// Generator sends a prompt to a language model and returns its raw text reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Searcher retrieves knowledge articles for a question.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) (*models.SearchResponse, error)
}

// Service answers chat messages.
type Service struct {
	search  Searcher
	gen     Generator
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithGenerator enables model replies. Without it every message gets a fixed
// reply offering ticket creation.
func WithGenerator(g Generator) ServiceOption {
	return func(s *Service) { s.gen = g }
}

// WithTimeout sets the deadline for the generator call.
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

// WithMetrics records generator failures.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService returns an assistant that retrieves context with search.
func NewService(search Searcher, opts ...ServiceOption) *Service {
	s := &Service{
		search:  search,
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

// Enabled reports whether a generator is configured.
func (s *Service) Enabled() bool {
	return s.gen != nil
}

// Reply answers message. Generator and retrieval failures are answered with a
// fixed reply that offers ticket creation; only a blank message is an error.
func (s *Service) Reply(ctx context.Context, req models.ChatRequest) (*models.ChatReply, error) {
	if req.Blank() {
		return nil, fmt.Errorf("%w: message is required", models.ErrInvalidRequest)
	}
	message := strings.TrimSpace(req.Message)
	reply := &models.ChatReply{TicketContext: message, Sources: []string{}}

	if s.gen == nil {
		reply.Response = unconfiguredReply
		reply.ShowTicketOption = true
		return reply, nil
	}

	found, err := s.search.Search(ctx, message, ContextArticles)
	if err != nil {
		s.logger.Warn("knowledge retrieval failed", zap.Error(err))
		reply.Response = unavailableReply
		reply.ShowTicketOption = true
		return reply, nil
	}
	for _, hit := range found.Results {
		reply.Sources = append(reply.Sources, hit.ID)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	text, err := s.gen.Generate(callCtx, BuildPrompt(message, found.Results))
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = errors.New("empty reply")
	}
	if err != nil {
		s.metrics.ObserveProviderFailure("assistant")
		s.logger.Warn("assistant reply failed", zap.Error(err))
		reply.Response = unavailableReply
		reply.ShowTicketOption = true
		return reply, nil
	}

	reply.Response = text
	reply.ShowTicketOption = lowConfidence(text) || unansweredQuestion(message, len(found.Results))
	s.logger.Debug("assistant replied",
		zap.Int("articles", len(found.Results)),
		zap.String("mode", string(found.Mode)),
		zap.Bool("show_ticket_option", reply.ShowTicketOption))
	return reply, nil
}

// BuildPrompt renders the fixed assistant prompt with the retrieved articles.
func BuildPrompt(message string, hits []models.ArticleHit) string {
	var kb strings.Builder
	for _, hit := range hits {
		fmt.Fprintf(&kb, "---\nTitle: %s\nContent: %s\n---\n", hit.Title, hit.Body)
	}
	return fmt.Sprintf(promptTemplate, kb.String(), message)
}

func lowConfidence(reply string) bool {
	lower := strings.ToLower(reply)
	for _, p := range lowConfidencePhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// unansweredQuestion is a real question (more than two words, not a greeting)
// that matched no article.
func unansweredQuestion(message string, articles int) bool {
	if articles > 0 {
		return false
	}
	return len(strings.Fields(message)) > 2 && !strings.Contains(strings.ToLower(message), "hello")
}
