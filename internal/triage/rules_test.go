package triage

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hyperjump/smartdesk/internal/models"
)

func TestRuleClassifier_Classify(t *testing.T) {
	c := NewRuleClassifier(DefaultKeywordTables())
	tests := []struct {
		name         string
		subject      string
		body         string
		wantQueue    models.Queue
		wantPriority models.Priority
		wantConf     string
	}{
		{"vpn outage", "VPN down", "Cannot connect, urgent", models.QueueIT, models.PriorityHigh, ConfidencePhrase},
		{"vacation", "Vacation request", "Requesting leave next week, no rush", models.QueueHR, models.PriorityLow, ConfidencePhrase},
		{"no signal", "Hello", "", models.QueueOther, models.PriorityMedium, ConfidenceLow},
		{"impact score", "Payroll system", "unable to open payroll, it keeps crashing and is down", models.QueueHR, models.PriorityHigh, ConfidenceMedium},
		{"informational", "Question about training", "Just curious, whenever you have time", models.QueueOther, models.PriorityLow, ConfidenceLow},
		{"facilities beats it on tie", "desk laptop", "", models.QueueFacilities, models.PriorityMedium, ConfidenceMedium},
		{"it beats hr on tie", "laptop salary", "", models.QueueIT, models.PriorityMedium, ConfidenceMedium},
		{"phrase precedence", "water leak", "right next to the printer jam", models.QueueFacilities, models.PriorityMedium, ConfidencePhrase},
		{"account lockout", "Locked out", "I am locked out of my account", models.QueueIT, models.PriorityMedium, ConfidencePhrase},
		{"account keyword", "Account problem", "my account shows an error", models.QueueIT, models.PriorityMedium, ConfidenceMedium},
		{"safety", "Smoke in kitchen", "there is smoke coming from the office kitchen", models.QueueFacilities, models.PriorityHigh, ConfidenceMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.subject, tt.body)
			if got.Queue != tt.wantQueue {
				t.Errorf("queue = %v, want %v (%s)", got.Queue, tt.wantQueue, got.Reasoning)
			}
			if got.Priority != tt.wantPriority {
				t.Errorf("priority = %v, want %v (%s)", got.Priority, tt.wantPriority, got.Reasoning)
			}
			if got.Confidence != tt.wantConf {
				t.Errorf("confidence = %q, want %q", got.Confidence, tt.wantConf)
			}
			if got.Source != models.SourceRuleFallback {
				t.Errorf("source = %q", got.Source)
			}
			if !strings.HasPrefix(got.Reasoning, "rule-based classifier: ") {
				t.Errorf("reasoning should name the scorer: %q", got.Reasoning)
			}
		})
	}
}

func TestRuleClassifier_NegationBeatsUrgency(t *testing.T) {
	c := NewRuleClassifier(DefaultKeywordTables())
	got := c.Classify("Monitor flicker", "not urgent but the screen is down sometimes, cannot focus")
	if got.Priority != models.PriorityLow {
		t.Errorf("priority = %v, want Low (%s)", got.Priority, got.Reasoning)
	}
}

func TestRuleClassifier_Deterministic(t *testing.T) {
	c := NewRuleClassifier(DefaultKeywordTables())
	first := c.Classify("Printer broken", "The printer on floor 3 is printing blank pages")
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, c.Classify("Printer broken", "The printer on floor 3 is printing blank pages")); diff != "" {
			t.Fatalf("classification changed (-first +got):\n%s", diff)
		}
	}
	if first.Queue != models.QueueIT {
		t.Errorf("queue = %v, want IT", first.Queue)
	}
}

func TestRuleClassifier_CustomTables(t *testing.T) {
	tables := KeywordTables{
		Categories: []CategoryKeywords{
			{Queue: models.QueueHR, Label: "HR", Primary: []string{"badge"}},
		},
	}
	c := NewRuleClassifier(tables)
	got := c.Classify("Lost badge", "")
	if got.Queue != models.QueueHR {
		t.Errorf("queue = %v, want HR", got.Queue)
	}
	if got.Priority != models.PriorityMedium {
		t.Errorf("priority = %v, want Medium", got.Priority)
	}
}

func TestRuleClassifier_EmptyInput(t *testing.T) {
	c := NewRuleClassifier(DefaultKeywordTables())
	got := c.Classify("", "")
	if got.Queue != models.QueueOther || got.Priority != models.PriorityMedium {
		t.Errorf("got %v/%v, want Other/Medium", got.Queue, got.Priority)
	}
	if got.Reasoning == "" {
		t.Error("reasoning must not be empty")
	}
}
