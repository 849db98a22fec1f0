package models

import (
	"fmt"
	"strings"
)

// Queue is a routing destination for tickets.
type Queue int

const (
	QueueHR         Queue = 1
	QueueIT         Queue = 2
	QueueFacilities Queue = 3
	QueueOther      Queue = 4
)

var queueNames = map[Queue]string{
	QueueHR:         "HR",
	QueueIT:         "IT",
	QueueFacilities: "Facilities",
	QueueOther:      "Other",
}

// Valid reports whether q is one of the four known queues.
func (q Queue) Valid() bool {
	_, ok := queueNames[q]
	return ok
}

func (q Queue) String() string {
	if name, ok := queueNames[q]; ok {
		return name
	}
	return fmt.Sprintf("Queue(%d)", int(q))
}

// ParseQueue resolves a queue name ("IT", "facilities") case-insensitively.
func ParseQueue(s string) (Queue, bool) {
	s = strings.TrimSpace(s)
	for q, name := range queueNames {
		if strings.EqualFold(name, s) {
			return q, true
		}
	}
	return 0, false
}

// Priority is the urgency of a ticket. Lower values are more urgent.
type Priority int

const (
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 2
	PriorityLow    Priority = 3
)

var priorityNames = map[Priority]string{
	PriorityHigh:   "High",
	PriorityMedium: "Medium",
	PriorityLow:    "Low",
}

// Valid reports whether p is one of the three known priorities.
func (p Priority) Valid() bool {
	_, ok := priorityNames[p]
	return ok
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// ParsePriority resolves a priority name ("high", "Low") case-insensitively.
func ParsePriority(s string) (Priority, bool) {
	s = strings.TrimSpace(s)
	for p, name := range priorityNames {
		if strings.EqualFold(name, s) {
			return p, true
		}
	}
	return 0, false
}

// TriageSource records which scorer produced a classification.
type TriageSource string

const (
	SourceExternal     TriageSource = "external"
	SourceRuleFallback TriageSource = "rule-fallback"
)

// TriageRequest is the text of a ticket to classify.
type TriageRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Blank reports whether both subject and body are empty after trimming.
func (r TriageRequest) Blank() bool {
	return strings.TrimSpace(r.Subject) == "" && strings.TrimSpace(r.Body) == ""
}

// TriageResult is a routing decision.
type TriageResult struct {
	Queue      Queue        `json:"queue"`
	Priority   Priority     `json:"priority"`
	Reasoning  string       `json:"reasoning"`
	Source     TriageSource `json:"source"`
	Confidence string       `json:"confidence,omitempty"`
}
