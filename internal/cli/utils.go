// Package cli formats engine results for the smartdesk command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/smartdesk/internal/indexer"
	"github.com/hyperjump/smartdesk/internal/models"
	"github.com/hyperjump/smartdesk/pkg/utils"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const rule = "─────────────────────────────────────────────────────────"

// ParseOutputFormat resolves a -output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteTriageResult writes a routing decision.
func WriteTriageResult(w io.Writer, result models.TriageResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, result)
	}
	fmt.Fprintf(w, "Queue:      %s\n", result.Queue)
	fmt.Fprintf(w, "Priority:   %s\n", result.Priority)
	fmt.Fprintf(w, "Source:     %s\n", result.Source)
	if result.Confidence != "" {
		fmt.Fprintf(w, "Confidence: %s\n", result.Confidence)
	}
	fmt.Fprintf(w, "Reasoning:  %s\n", result.Reasoning)
	return nil
}

// WriteSearchResults writes a knowledge search response.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d results for %q (mode: %s)\n\n", len(response.Results), response.Query, response.Mode)
	for i, hit := range response.Results {
		fmt.Fprintln(w, rule)
		if hit.Score != nil {
			fmt.Fprintf(w, "%d. %s (score %.4f)\n", i+1, hit.Title, *hit.Score)
		} else {
			fmt.Fprintf(w, "%d. %s\n", i+1, hit.Title)
		}
		fmt.Fprintf(w, "ID: %s\n", hit.ID)
		if len(hit.Tags) > 0 {
			fmt.Fprintf(w, "Tags: %v\n", hit.Tags)
		}
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(utils.OneLine(hit.Body), 200))
	}
	return nil
}

// WriteChatReply writes an assistant reply.
func WriteChatReply(w io.Writer, reply *models.ChatReply, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, reply)
	}
	fmt.Fprintln(w, reply.Response)
	if reply.ShowTicketOption {
		fmt.Fprintf(w, "\nNot solved? Create a ticket: smartdesk triage %q\n", reply.TicketContext)
	}
	return nil
}

// WriteAnalytics writes the dashboard summary.
func WriteAnalytics(w io.Writer, summary *models.AnalyticsSummary, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, summary)
	}
	fmt.Fprintf(w, "Tickets:        %d total, %d open, %d closed\n",
		summary.TotalTickets, summary.OpenTickets, summary.ClosedTickets)
	fmt.Fprintf(w, "SLA compliance: %.1f%%\n", summary.SLACompliance)
	fmt.Fprintf(w, "FCR rate:       %.1f%%\n", summary.FCRRate)
	if len(summary.AgentWorkload) == 0 {
		fmt.Fprintln(w, "Agent workload: no agents")
		return nil
	}
	fmt.Fprintln(w, "Agent workload:")
	for _, a := range summary.AgentWorkload {
		fmt.Fprintf(w, "  %-20s %d open\n", a.Agent, a.OpenTicketCount)
	}
	return nil
}

// WriteBackfillReport writes the outcome of an embedding backfill.
func WriteBackfillReport(w io.Writer, report *indexer.BackfillReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	fmt.Fprintf(w, "Backfill: %d candidates, %d embedded, %d failed\n",
		report.Candidates, report.Embedded, report.Failed)
	for _, e := range report.Entries {
		if e.Embedded {
			continue
		}
		fmt.Fprintf(w, "  FAILED %s %q after %d attempts: %s\n", e.ArticleID, utils.Truncate(e.Title, 60), e.Attempts, e.Error)
	}
	return nil
}
