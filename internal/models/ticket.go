package models

import "time"

// Role is a user account role.
type Role int

const (
	RoleAdmin Role = 1
	RoleUser  Role = 2
	RoleAgent Role = 3
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r >= RoleAdmin && r <= RoleAgent
}

// User is an account that can raise, comment on, or work tickets.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketStatus is the lifecycle state of a ticket.
type TicketStatus int

const (
	StatusOpen   TicketStatus = 1
	StatusClosed TicketStatus = 2
)

// Ticket is a support request.
type Ticket struct {
	ID              string       `json:"id"`
	Subject         string       `json:"subject"`
	Description     string       `json:"description"`
	Queue           Queue        `json:"queue"`
	Priority        Priority     `json:"priority"`
	Status          TicketStatus `json:"status"`
	CreatedBy       string       `json:"created_by,omitempty"`
	AssignedTo      *string      `json:"assigned_to,omitempty"`
	SLAMinutes      *int         `json:"sla_minutes,omitempty"`
	TriageSource    TriageSource `json:"triage_source,omitempty"`
	TriageReasoning string       `json:"triage_reasoning,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	ClosedAt        *time.Time   `json:"closed_at,omitempty"`
}

// TicketInput is the input for creating a ticket. Queue and Priority are
// optional; when absent the ticket is triaged.
type TicketInput struct {
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by,omitempty"`
	Queue       *Queue    `json:"queue,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
}

// Comment is a message on a ticket thread.
type Comment struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// SLATime is the allowance in minutes for a priority.
type SLATime struct {
	Priority Priority `json:"priority"`
	Minutes  int      `json:"minutes"`
}

// CannedResponse is a pre-written agent reply.
type CannedResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	SearchTags []string  `json:"search_tags"`
	CreatedAt  time.Time `json:"created_at"`
}
