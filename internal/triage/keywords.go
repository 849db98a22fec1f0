package triage

import "github.com/hyperjump/smartdesk/internal/models"

// Keyword weights for category scoring.
const (
	PrimaryWeight   = 3
	SecondaryWeight = 1
)

// Priority group weights.
const (
	UrgentWeight     = 2
	BlockingWeight   = 1
	HighImpactWeight = 1
	SafetyWeight     = 3
)

// CategoryKeywords lists the terms that indicate a queue.
type CategoryKeywords struct {
	Queue         models.Queue
	Label         string
	Primary       []string
	Secondary     []string
	StrongPhrases []string
}

// PriorityKeywords lists the terms that move a ticket's priority.
type PriorityKeywords struct {
	Urgent        []string
	Blocking      []string
	HighImpact    []string
	Safety        []string
	Informational []string
	Negations     []string
}

// KeywordTables is the full rule data. Categories are listed in precedence
// order: when two categories tie, the earlier one wins.
type KeywordTables struct {
	Categories []CategoryKeywords
	Priority   PriorityKeywords
}

// DefaultKeywordTables returns the built-in HR, IT and Facilities vocabulary.
func DefaultKeywordTables() KeywordTables {
	return KeywordTables{
		Categories: []CategoryKeywords{
			{
				Queue: models.QueueFacilities,
				Label: "Facilities",
				Primary: []string{
					"office", "desk", "chair", "air conditioning", "heat", "cool",
					"light", "leak", "plumb", "toilet", "bathroom", "elevator", "parking",
				},
				Secondary: []string{
					"room", "conference", "clean", "maintenance", "repair", "furniture",
					"door", "bulb", "temperature", "drip", "building", "kitchen",
				},
				StrongPhrases: []string{
					"air conditioning", "water leak", "light bulb", "broken chair",
					"parking space", "toilet blocked",
				},
			},
			{
				Queue: models.QueueIT,
				Label: "IT",
				Primary: []string{
					"computer", "laptop", "password", "vpn", "wifi", "network",
					"email", "login", "printer", "software", "server", "account",
				},
				Secondary: []string{
					"desktop", "screen", "monitor", "keyboard", "mouse", "hardware",
					"windows", "outlook", "access", "internet", "crash", "freeze",
					"error", "bug", "install", "update", "virus", "malware",
					"database", "connect",
				},
				StrongPhrases: []string{
					"vpn down", "wifi down", "internet down", "network down", "system down",
					"password reset", "forgot password", "blue screen", "black screen",
					"laptop screen", "computer screen", "email access", "printer jam",
					"account locked", "locked out of my account",
				},
			},
			{
				Queue: models.QueueHR,
				Label: "HR",
				Primary: []string{
					"payroll", "salary", "leave", "vacation", "benefit", "harassment",
					"resign", "onboard", "recruit",
				},
				Secondary: []string{
					"wage", "pay", "bonus", "holiday", "sick", "insurance", "hire",
					"terminat", "contract", "employee", "appraisal", "performance",
					"training", "policy", "pension", "maternity",
				},
				StrongPhrases: []string{
					"sick leave", "vacation leave", "vacation request", "leave request",
					"annual leave", "maternity leave", "payslip",
				},
			},
		},
		Priority: PriorityKeywords{
			Urgent:     []string{"urgent", "emergency", "critical", "asap", "immediate"},
			Blocking:   []string{"cannot", "can t", "unable", "stuck", "block", "won t", "wont", "locked out"},
			HighImpact: []string{"down", "broken", "crash", "dead", "outage", "deadline", "everyone", "not working", "stopped working"},
			Safety:     []string{"fire alarm", "on fire", "smoke", "gas leak", "flood", "injur", "electric shock", "sparks"},
			Informational: []string{
				"question", "query", "request", "wondering", "curious", "info",
				"suggestion", "whenever", "later", "minor", "small", "optional",
			},
			Negations: []string{"not urgent", "no rush", "no hurry", "low priority"},
		},
	}
}
