// Package storage defines persistence for knowledge articles and helpdesk records.
package storage

import (
	"context"

	"github.com/hyperjump/smartdesk/internal/models"
)

// ArticleStore persists knowledge-base articles.
type ArticleStore interface {
	CreateArticle(ctx context.Context, a *models.Article) error
	GetArticle(ctx context.Context, id string) (*models.Article, error)
	// UpdateArticle replaces title, body, tags, source path and active flag.
	UpdateArticle(ctx context.Context, a *models.Article) error
	DeactivateArticle(ctx context.Context, id string) error
	// ListActiveArticles returns active articles, newest first.
	ListActiveArticles(ctx context.Context) ([]*models.Article, error)
	// ListArticlesMissingEmbedding returns active articles without a vector, oldest first.
	ListArticlesMissingEmbedding(ctx context.Context) ([]*models.Article, error)
	// SetArticleEmbedding attaches or clears (nil) an article's vector. Last write wins.
	SetArticleEmbedding(ctx context.Context, id string, e *models.Embedding) error
	CountArticles(ctx context.Context) (total, active, embedded int64, err error)
}

// TicketStore persists tickets, comments, users and SLA settings.
type TicketStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsersByRole(ctx context.Context, role models.Role) ([]*models.User, error)

	SetSLA(ctx context.Context, priority models.Priority, minutes int) error
	// GetSLA returns the allowance for priority, or nil when none is configured.
	GetSLA(ctx context.Context, priority models.Priority) (*int, error)
	ListSLA(ctx context.Context) ([]models.SLATime, error)

	CreateTicket(ctx context.Context, t *models.Ticket) error
	GetTicket(ctx context.Context, id string) (*models.Ticket, error)
	ListTickets(ctx context.Context, status models.TicketStatus, limit int) ([]*models.Ticket, error)
	AssignTicket(ctx context.Context, id, agentID string) error
	CloseTicket(ctx context.Context, id string) error

	AddComment(ctx context.Context, c *models.Comment) error
	ListComments(ctx context.Context, ticketID string) ([]*models.Comment, error)

	// ListTicketOutcomes returns the analytics view of every ticket.
	ListTicketOutcomes(ctx context.Context) ([]models.TicketOutcome, error)
	CountOpenAssigned(ctx context.Context, agentID string) (int, error)
}

// CannedStore persists canned responses.
type CannedStore interface {
	CreateCannedResponse(ctx context.Context, c *models.CannedResponse) error
	GetCannedResponse(ctx context.Context, id string) (*models.CannedResponse, error)
	ListCannedResponses(ctx context.Context) ([]*models.CannedResponse, error)
}

// Storage is the full record store.
type Storage interface {
	ArticleStore
	TicketStore
	CannedStore
	Close() error
}
