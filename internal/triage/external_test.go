package triage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/smartdesk/internal/models"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantQueue    models.Queue
		wantPriority models.Priority
	}{
		{"plain json", `{"queue": 2, "priority": 1, "reasoning": "VPN outage"}`, models.QueueIT, models.PriorityHigh},
		{"fenced json", "```json\n{\"queue\": 1, \"priority\": 3, \"reasoning\": \"leave\"}\n```", models.QueueHR, models.PriorityLow},
		{"bare fence", "```\n{\"queue\": 3, \"priority\": 2}\n```", models.QueueFacilities, models.PriorityMedium},
		{"single line fence", "```json{\"queue\": 4, \"priority\": 2}```", models.QueueOther, models.PriorityMedium},
		{"surrounding prose", "Sure! Here it is: {\"queue\": 2, \"priority\": 2, \"reasoning\": \"x\"} Hope that helps.", models.QueueIT, models.PriorityMedium},
		{"names", `{"queue": "Facilities", "priority": "high"}`, models.QueueFacilities, models.PriorityHigh},
		{"numeric strings", `{"queue": "2", "priority": "3"}`, models.QueueIT, models.PriorityLow},
		{"brace in prose before fence", "Sure {see below}\n```json\n{\"queue\": 2, \"priority\": 1, \"reasoning\": \"x\"}\n```", models.QueueIT, models.PriorityHigh},
		{"brace in prose before object", "Answer {as requested}: {\"queue\": 1, \"priority\": 2}", models.QueueHR, models.PriorityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReply(tt.raw)
			if err != nil {
				t.Fatalf("ParseReply: %v", err)
			}
			if got.Queue != tt.wantQueue || got.Priority != tt.wantPriority {
				t.Errorf("got %v/%v, want %v/%v", got.Queue, got.Priority, tt.wantQueue, tt.wantPriority)
			}
			if got.Source != models.SourceExternal {
				t.Errorf("source = %q", got.Source)
			}
			if !strings.HasPrefix(got.Reasoning, "external classifier: ") {
				t.Errorf("reasoning = %q", got.Reasoning)
			}
		})
	}
}

func TestParseReply_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"prose only", "I think this is an IT ticket."},
		{"missing priority", `{"queue": 2}`},
		{"missing queue", `{"priority": 2, "reasoning": "x"}`},
		{"queue out of range", `{"queue": 7, "priority": 2}`},
		{"priority zero", `{"queue": 2, "priority": 0}`},
		{"null queue", `{"queue": null, "priority": 1}`},
		{"unknown name", `{"queue": "Finance", "priority": 1}`},
		{"fractional", `{"queue": 2.5, "priority": 1}`},
		{"broken json", `{"queue": 2, "priority": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReply(tt.raw)
			if !errors.Is(err, ErrMalformedReply) {
				t.Errorf("err = %v, want ErrMalformedReply", err)
			}
		})
	}
}

type stubGenerator struct {
	reply  string
	err    error
	prompt string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.reply, g.err
}

func TestLLMClassifier_Classify(t *testing.T) {
	gen := &stubGenerator{reply: "```json\n{\"queue\": 2, \"priority\": 1, \"reasoning\": \"network outage\"}\n```"}
	c := NewLLMClassifier(gen)
	got, err := c.Classify(context.Background(), models.TriageRequest{Subject: "VPN down", Body: "Cannot connect"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Queue != models.QueueIT || got.Priority != models.PriorityHigh {
		t.Errorf("got %v/%v", got.Queue, got.Priority)
	}
	for _, want := range []string{"Subject: VPN down", "Description: Cannot connect", `"queue"`, "4 = Other"} {
		if !strings.Contains(gen.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestLLMClassifier_GeneratorError(t *testing.T) {
	boom := errors.New("quota exceeded")
	c := NewLLMClassifier(&stubGenerator{err: boom})
	if _, err := c.Classify(context.Background(), models.TriageRequest{Subject: "x"}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}
