package triage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperjump/smartdesk/internal/models"
)

// ErrMalformedReply is returned when the external classifier answers with
// something that is not a usable classification.
var ErrMalformedReply = errors.New("malformed classifier reply")

const externalPrefix = "external classifier: "

// Classifier proposes a classification for a ticket. Implementations may be
// slow or fail; callers must handle errors.
type Classifier interface {
	Classify(ctx context.Context, req models.TriageRequest) (models.TriageResult, error)
}

// Generator sends a prompt to a language model and returns its raw text reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const promptTemplate = `You are a helpdesk triage assistant. Classify the support ticket below.

Queues:
1 = HR (payroll, leave, benefits, hiring, workplace policy)
2 = IT (computers, accounts, passwords, network, software, printers)
3 = Facilities (office space, furniture, heating and cooling, plumbing, lighting, building maintenance)
4 = Other (anything that does not fit the queues above)

Priorities:
1 = High (work is blocked, outage, safety risk, explicit urgency)
2 = Medium (normal requests with some business impact)
3 = Low (questions, minor issues, no time pressure)

Respond with only a JSON object of the form:
{"queue": <1-4>, "priority": <1-3>, "reasoning": "<one sentence>"}

Subject: %s
Description: %s
`

// BuildPrompt renders the fixed classification prompt for a ticket.
func BuildPrompt(req models.TriageRequest) string {
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(req.Subject), strings.TrimSpace(req.Body))
}

// LLMClassifier classifies tickets by prompting a language model.
type LLMClassifier struct {
	gen Generator
}

// NewLLMClassifier returns a classifier backed by gen.
func NewLLMClassifier(gen Generator) *LLMClassifier {
	return &LLMClassifier{gen: gen}
}

// Classify sends one prompt and parses the reply.
func (c *LLMClassifier) Classify(ctx context.Context, req models.TriageRequest) (models.TriageResult, error) {
	raw, err := c.gen.Generate(ctx, BuildPrompt(req))
	if err != nil {
		return models.TriageResult{}, fmt.Errorf("failed to query classifier: %w", err)
	}
	return ParseReply(raw)
}

type reply struct {
	Queue     json.RawMessage `json:"queue"`
	Priority  json.RawMessage `json:"priority"`
	Reasoning string          `json:"reasoning"`
}

// ParseReply extracts a classification from a model reply. The JSON object may
// be wrapped in markdown code fences or surrounded by prose. Queue and priority
// may be given as numbers or names.
func ParseReply(raw string) (models.TriageResult, error) {
	body := extractJSONObject(stripCodeFences(raw))
	if body == "" {
		body = extractJSONObject(raw)
	}
	if body == "" {
		return models.TriageResult{}, fmt.Errorf("%w: no JSON object in reply", ErrMalformedReply)
	}
	var r reply
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return models.TriageResult{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if len(r.Queue) == 0 || len(r.Priority) == 0 {
		return models.TriageResult{}, fmt.Errorf("%w: queue and priority are required", ErrMalformedReply)
	}

	q, err := parseEnum(r.Queue, func(s string) (int, bool) {
		v, ok := models.ParseQueue(s)
		return int(v), ok
	})
	if err != nil || !models.Queue(q).Valid() {
		return models.TriageResult{}, fmt.Errorf("%w: invalid queue %s", ErrMalformedReply, string(r.Queue))
	}
	p, err := parseEnum(r.Priority, func(s string) (int, bool) {
		v, ok := models.ParsePriority(s)
		return int(v), ok
	})
	if err != nil || !models.Priority(p).Valid() {
		return models.TriageResult{}, fmt.Errorf("%w: invalid priority %s", ErrMalformedReply, string(r.Priority))
	}

	reasoning := strings.TrimSpace(r.Reasoning)
	if reasoning == "" {
		reasoning = "no reasoning given"
	}
	return models.TriageResult{
		Queue:     models.Queue(q),
		Priority:  models.Priority(p),
		Reasoning: externalPrefix + reasoning,
		Source:    models.SourceExternal,
	}, nil
}

// parseEnum accepts a JSON number, a numeric string, or a name understood by byName.
func parseEnum(raw json.RawMessage, byName func(string) (int, bool)) (int, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n != float64(int(n)) {
			return 0, fmt.Errorf("non-integer value %v", n)
		}
		return int(n), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	if v, ok := byName(s); ok {
		return v, nil
	}
	return 0, fmt.Errorf("unknown value %q", s)
}

// stripCodeFences removes markdown fence lines such as "```json" and "```".
func stripCodeFences(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	out := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// extractJSONObject returns the first {...} object in s that decodes, or "".
// Braces in surrounding prose are skipped.
func extractJSONObject(s string) string {
	for off := 0; off < len(s); {
		i := strings.IndexByte(s[off:], '{')
		if i < 0 {
			return ""
		}
		start := off + i
		dec := json.NewDecoder(strings.NewReader(s[start:]))
		var obj map[string]json.RawMessage
		if err := dec.Decode(&obj); err == nil {
			end := start + int(dec.InputOffset())
			return s[start:end]
		}
		off = start + 1
	}
	return ""
}
