package models

import "strings"

// ChatRequest is a message sent to the helpdesk assistant.
type ChatRequest struct {
	Message string `json:"message"`
}

// Blank reports whether the message has no content.
func (r ChatRequest) Blank() bool {
	return strings.TrimSpace(r.Message) == ""
}

// ChatReply is the assistant's answer. ShowTicketOption asks the client to
// offer ticket creation; TicketContext is the text to prefill it with.
type ChatReply struct {
	Response         string `json:"response"`
	ShowTicketOption bool   `json:"show_ticket_option"`
	TicketContext    string `json:"ticket_context"`

	// Sources are the IDs of the articles placed in the prompt.
	Sources []string `json:"sources"`
}
