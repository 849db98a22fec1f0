package triage

import (
	"fmt"
	"strings"

	"github.com/hyperjump/smartdesk/internal/models"
)

// Confidence labels attached to rule-based results.
const (
	ConfidencePhrase = "high (phrase match)"
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// MinCategoryScore is the score a category needs before it beats Other.
const MinCategoryScore = 3

// strongScore is the score at which a keyword match is labelled high confidence.
const strongScore = 6

const rulePrefix = "rule-based classifier: "

type category struct {
	queue     models.Queue
	label     string
	primary   []string
	secondary []string
	phrases   []string
}

type weightedGroup struct {
	name   string
	weight int
	terms  []string
}

// RuleClassifier is a deterministic keyword classifier. It never fails.
type RuleClassifier struct {
	categories    []category
	high          []weightedGroup
	informational []string
	negations     []string
}

// NewRuleClassifier compiles tables into a classifier. Every term is passed
// through Normalize so table entries match normalized ticket text.
func NewRuleClassifier(tables KeywordTables) *RuleClassifier {
	c := &RuleClassifier{
		informational: normalizeTerms(tables.Priority.Informational),
		negations:     normalizeTerms(tables.Priority.Negations),
		high: []weightedGroup{
			{name: "urgent", weight: UrgentWeight, terms: normalizeTerms(tables.Priority.Urgent)},
			{name: "blocking", weight: BlockingWeight, terms: normalizeTerms(tables.Priority.Blocking)},
			{name: "high-impact", weight: HighImpactWeight, terms: normalizeTerms(tables.Priority.HighImpact)},
			{name: "safety", weight: SafetyWeight, terms: normalizeTerms(tables.Priority.Safety)},
		},
	}
	for _, ck := range tables.Categories {
		c.categories = append(c.categories, category{
			queue:     ck.Queue,
			label:     ck.Label,
			primary:   normalizeTerms(ck.Primary),
			secondary: normalizeTerms(ck.Secondary),
			phrases:   normalizeTerms(ck.StrongPhrases),
		})
	}
	return c
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if n := strings.TrimSpace(Normalize(t)); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Classify assigns a queue and priority to the ticket text.
func (c *RuleClassifier) Classify(subject, body string) models.TriageResult {
	text := Normalize(subject + " " + body)
	queue, confidence, queueNote := c.classifyQueue(text)
	priority, priorityNote := c.classifyPriority(text)
	return models.TriageResult{
		Queue:      queue,
		Priority:   priority,
		Reasoning:  rulePrefix + queueNote + " | " + priorityNote,
		Source:     models.SourceRuleFallback,
		Confidence: confidence,
	}
}

func (c *RuleClassifier) classifyQueue(text string) (models.Queue, string, string) {
	for _, cat := range c.categories {
		if phrase, ok := firstContained(text, cat.phrases); ok {
			return cat.queue, ConfidencePhrase,
				fmt.Sprintf("%s-related issue (confidence: %s, matched %q)", cat.label, ConfidencePhrase, phrase)
		}
	}

	best := -1
	bestScore := 0
	for i, cat := range c.categories {
		score := countContained(text, cat.primary)*PrimaryWeight + countContained(text, cat.secondary)*SecondaryWeight
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore < MinCategoryScore {
		return models.QueueOther, ConfidenceLow,
			fmt.Sprintf("General inquiry (low category confidence, best score %d)", bestScore)
	}
	confidence := ConfidenceMedium
	if bestScore >= strongScore {
		confidence = ConfidenceHigh
	}
	cat := c.categories[best]
	return cat.queue, confidence,
		fmt.Sprintf("%s-related issue (confidence: %s, %d points)", cat.label, confidence, bestScore)
}

func (c *RuleClassifier) classifyPriority(text string) (models.Priority, string) {
	if phrase, ok := firstContained(text, c.negations); ok {
		return models.PriorityLow, fmt.Sprintf("Low priority (de-escalated by %q)", phrase)
	}

	highCount := 0
	for _, g := range c.high {
		n := countContained(text, g.terms)
		highCount += n * g.weight
		if n > 0 && (g.name == "urgent" || g.name == "safety") {
			return models.PriorityHigh, fmt.Sprintf("High priority (%s keywords detected)", g.name)
		}
	}
	if highCount >= 3 {
		return models.PriorityHigh, fmt.Sprintf("High priority (impact score %d)", highCount)
	}

	lowCount := countContained(text, c.informational)
	if lowCount >= 2 && highCount == 0 {
		return models.PriorityLow, "Low priority (informational request)"
	}
	return models.PriorityMedium, "Medium priority (default)"
}

func firstContained(text string, terms []string) (string, bool) {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return t, true
		}
	}
	return "", false
}

func countContained(text string, terms []string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			n++
		}
	}
	return n
}
