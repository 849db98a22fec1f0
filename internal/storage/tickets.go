package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/smartdesk/internal/models"
)

const ticketColumns = `id, subject, description, queue, priority, status, created_by, assigned_to,
	sla_minutes, triage_source, triage_reasoning, created_at, closed_at`

// CreateUser inserts a user. An empty ID is replaced with a new UUID.
func (s *SQLiteStorage) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.Role, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUser returns a user by ID.
func (s *SQLiteStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	var email sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, role, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &email, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", id)
	}
	if err != nil {
		return nil, err
	}
	u.Email = email.String
	return &u, nil
}

// ListUsersByRole returns users with role, ordered by username.
func (s *SQLiteStorage) ListUsersByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, email, role, created_at FROM users WHERE role = ? ORDER BY username`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		var u models.User
		var email sql.NullString
		if err := rows.Scan(&u.ID, &u.Username, &email, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Email = email.String
		out = append(out, &u)
	}
	return out, rows.Err()
}

// SetSLA sets the allowance for a priority.
func (s *SQLiteStorage) SetSLA(ctx context.Context, priority models.Priority, minutes int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sla_times (priority, minutes) VALUES (?, ?)
		 ON CONFLICT(priority) DO UPDATE SET minutes = excluded.minutes`,
		priority, minutes)
	return err
}

// GetSLA returns the allowance for a priority, or nil if none is configured.
func (s *SQLiteStorage) GetSLA(ctx context.Context, priority models.Priority) (*int, error) {
	var minutes int
	err := s.db.QueryRowContext(ctx, `SELECT minutes FROM sla_times WHERE priority = ?`, priority).Scan(&minutes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &minutes, nil
}

// ListSLA returns all configured allowances ordered by priority.
func (s *SQLiteStorage) ListSLA(ctx context.Context) ([]models.SLATime, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT priority, minutes FROM sla_times ORDER BY priority`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.SLATime
	for rows.Next() {
		var st models.SLATime
		if err := rows.Scan(&st.Priority, &st.Minutes); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// CreateTicket inserts a ticket. An empty ID is replaced with a new UUID and
// a zero status becomes open.
func (s *SQLiteStorage) CreateTicket(ctx context.Context, t *models.Ticket) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == 0 {
		t.Status = models.StatusOpen
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tickets (`+ticketColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Subject, t.Description, t.Queue, t.Priority, t.Status, t.CreatedBy, t.AssignedTo,
		t.SLAMinutes, string(t.TriageSource), t.TriageReasoning, t.CreatedAt, t.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	return nil
}

// GetTicket returns a ticket by ID.
func (s *SQLiteStorage) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	t, err := scanTicket(s.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("ticket", id)
	}
	return t, err
}

// ListTickets returns tickets newest first. A zero status lists all tickets.
func (s *SQLiteStorage) ListTickets(ctx context.Context, status models.TicketStatus, limit int) ([]*models.Ticket, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets`
	args := []any{}
	if status != 0 {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AssignTicket sets the assignee of a ticket.
func (s *SQLiteStorage) AssignTicket(ctx context.Context, id, agentID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tickets SET assigned_to = ? WHERE id = ?`, agentID, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "ticket", id)
}

// CloseTicket marks a ticket closed.
func (s *SQLiteStorage) CloseTicket(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tickets SET status = ?, closed_at = ? WHERE id = ?`,
		models.StatusClosed, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireAffected(res, "ticket", id)
}

// AddComment appends a comment to a ticket's thread.
func (s *SQLiteStorage) AddComment(ctx context.Context, c *models.Comment) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (id, ticket_id, author_id, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.TicketID, c.AuthorID, c.Body, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// ListComments returns a ticket's comments, oldest first.
func (s *SQLiteStorage) ListComments(ctx context.Context, ticketID string) ([]*models.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ticket_id, author_id, body, created_at FROM comments
		 WHERE ticket_id = ? ORDER BY created_at, rowid`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.TicketID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// ListTicketOutcomes returns every ticket with its last comment time and the
// authors of its agent-written comments.
func (s *SQLiteStorage) ListTicketOutcomes(ctx context.Context) ([]models.TicketOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, sla_minutes, created_at FROM tickets ORDER BY created_at, rowid`)
	if err != nil {
		return nil, err
	}
	var outcomes []models.TicketOutcome
	index := make(map[string]int)
	for rows.Next() {
		var o models.TicketOutcome
		var status models.TicketStatus
		var sla sql.NullInt64
		if err := rows.Scan(&o.TicketID, &status, &sla, &o.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		o.Closed = status == models.StatusClosed
		if sla.Valid {
			m := int(sla.Int64)
			o.SLAAllowanceMinutes = &m
		}
		index[o.TicketID] = len(outcomes)
		outcomes = append(outcomes, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	crows, err := s.db.QueryContext(ctx,
		`SELECT c.ticket_id, c.author_id, c.created_at, COALESCE(u.role, 0)
		 FROM comments c LEFT JOIN users u ON u.id = c.author_id
		 ORDER BY c.created_at, c.rowid`)
	if err != nil {
		return nil, err
	}
	defer crows.Close()
	for crows.Next() {
		var ticketID, authorID string
		var at time.Time
		var role models.Role
		if err := crows.Scan(&ticketID, &authorID, &at, &role); err != nil {
			return nil, err
		}
		i, ok := index[ticketID]
		if !ok {
			continue
		}
		o := &outcomes[i]
		if o.LastActivityAt == nil || at.After(*o.LastActivityAt) {
			t := at
			o.LastActivityAt = &t
		}
		if role == models.RoleAgent {
			o.RespondingAgentIDs = append(o.RespondingAgentIDs, authorID)
		}
	}
	return outcomes, crows.Err()
}

// CountOpenAssigned returns the number of open tickets assigned to agentID.
func (s *SQLiteStorage) CountOpenAssigned(ctx context.Context, agentID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE assigned_to = ? AND status = ?`, agentID, models.StatusOpen,
	).Scan(&n)
	return n, err
}

func scanTicket(r rowScanner) (*models.Ticket, error) {
	var t models.Ticket
	var createdBy, assigned, source, reasoning sql.NullString
	var sla sql.NullInt64
	var closed sql.NullTime
	err := r.Scan(&t.ID, &t.Subject, &t.Description, &t.Queue, &t.Priority, &t.Status, &createdBy, &assigned,
		&sla, &source, &reasoning, &t.CreatedAt, &closed)
	if err != nil {
		return nil, err
	}
	t.CreatedBy = createdBy.String
	if assigned.Valid && assigned.String != "" {
		a := assigned.String
		t.AssignedTo = &a
	}
	if sla.Valid {
		m := int(sla.Int64)
		t.SLAMinutes = &m
	}
	t.TriageSource = models.TriageSource(source.String)
	t.TriageReasoning = reasoning.String
	if closed.Valid {
		c := closed.Time
		t.ClosedAt = &c
	}
	return &t, nil
}
