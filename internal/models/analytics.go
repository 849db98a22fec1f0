package models

import "time"

// TicketOutcome is the analytics view of a single ticket.
type TicketOutcome struct {
	TicketID            string     `json:"ticket_id"`
	CreatedAt           time.Time  `json:"created_at"`
	Closed              bool       `json:"closed"`
	SLAAllowanceMinutes *int       `json:"sla_allowance_minutes,omitempty"`
	LastActivityAt      *time.Time `json:"last_activity_at,omitempty"`
	// RespondingAgentIDs has one entry per agent-authored comment.
	RespondingAgentIDs []string `json:"responding_agent_ids"`
}

// AgentWorkload is the number of open tickets assigned to an agent.
type AgentWorkload struct {
	AgentID         string `json:"agent_id"`
	Agent           string `json:"agent"`
	OpenTicketCount int    `json:"open_ticket_count"`
}

// AnalyticsSummary is the dashboard snapshot.
type AnalyticsSummary struct {
	SLACompliance float64         `json:"sla_compliance"`
	FCRRate       float64         `json:"fcr_rate"`
	AgentWorkload []AgentWorkload `json:"agent_workload"`
	TotalTickets  int             `json:"total_tickets"`
	OpenTickets   int             `json:"open_tickets"`
	ClosedTickets int             `json:"closed_tickets"`
}
