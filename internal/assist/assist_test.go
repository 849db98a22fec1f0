package assist

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hyperjump/smartdesk/internal/models"
)

type fakeSearcher struct {
	hits  []models.ArticleHit
	err   error
	calls int
	topK  int
}

func (f *fakeSearcher) Search(_ context.Context, query string, topK int) (*models.SearchResponse, error) {
	f.calls++
	f.topK = topK
	if f.err != nil {
		return nil, f.err
	}
	mode := models.ModeKeywordFallback
	if len(f.hits) == 0 {
		mode = models.ModeEmpty
	}
	return &models.SearchResponse{Mode: mode, Query: query, Results: f.hits}, nil
}

type fakeGenerator struct {
	reply  string
	err    error
	delay  time.Duration
	prompt string
	calls  int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

var vpnArticle = models.ArticleHit{ID: "a1", Title: "VPN setup", Body: "Install the client and sign in with your badge number."}

func TestReply_NoGenerator(t *testing.T) {
	search := &fakeSearcher{hits: []models.ArticleHit{vpnArticle}}
	svc := NewService(search)
	if svc.Enabled() {
		t.Fatal("assistant should be disabled without a generator")
	}
	got, err := svc.Reply(context.Background(), models.ChatRequest{Message: " How do I set up the VPN? "})
	if err != nil {
		t.Fatal(err)
	}
	want := &models.ChatReply{
		Response:         unconfiguredReply,
		ShowTicketOption: true,
		TicketContext:    "How do I set up the VPN?",
		Sources:          []string{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reply mismatch (-want +got):\n%s", diff)
	}
	if search.calls != 0 {
		t.Errorf("search calls = %d, want 0", search.calls)
	}
}

func TestReply_GeneratorFailure(t *testing.T) {
	failures := map[string]*fakeGenerator{
		"error":   {err: errors.New("quota exceeded")},
		"empty":   {reply: "   "},
		"timeout": {reply: "too late", delay: time.Second},
	}
	for name, gen := range failures {
		t.Run(name, func(t *testing.T) {
			svc := NewService(&fakeSearcher{hits: []models.ArticleHit{vpnArticle}},
				WithGenerator(gen), WithTimeout(20*time.Millisecond))
			got, err := svc.Reply(context.Background(), models.ChatRequest{Message: "vpn setup"})
			if err != nil {
				t.Fatal(err)
			}
			if got.Response != unavailableReply || !got.ShowTicketOption {
				t.Errorf("got %+v, want unavailable reply with ticket option", got)
			}
			if got.TicketContext != "vpn setup" {
				t.Errorf("ticket context = %q", got.TicketContext)
			}
			if gen.calls != 1 {
				t.Errorf("generator calls = %d, want 1", gen.calls)
			}
		})
	}
}

func TestReply_SearchFailure(t *testing.T) {
	gen := &fakeGenerator{reply: "unused"}
	svc := NewService(&fakeSearcher{err: errors.New("database is locked")}, WithGenerator(gen))
	got, err := svc.Reply(context.Background(), models.ChatRequest{Message: "vpn setup"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Response != unavailableReply || !got.ShowTicketOption {
		t.Errorf("got %+v", got)
	}
	if gen.calls != 0 {
		t.Errorf("generator should not be called when retrieval fails")
	}
}

func TestReply_GroundedAnswer(t *testing.T) {
	search := &fakeSearcher{hits: []models.ArticleHit{vpnArticle}}
	gen := &fakeGenerator{reply: "  Install the VPN client, then sign in with your badge number.  "}
	svc := NewService(search, WithGenerator(gen))
	got, err := svc.Reply(context.Background(), models.ChatRequest{Message: "How do I set up the VPN?"})
	if err != nil {
		t.Fatal(err)
	}
	want := &models.ChatReply{
		Response:         "Install the VPN client, then sign in with your badge number.",
		ShowTicketOption: false,
		TicketContext:    "How do I set up the VPN?",
		Sources:          []string{"a1"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reply mismatch (-want +got):\n%s", diff)
	}
	if search.topK != ContextArticles {
		t.Errorf("search top_k = %d, want %d", search.topK, ContextArticles)
	}
	for _, s := range []string{"Title: VPN setup", "Content: Install the client", "User question: How do I set up the VPN?"} {
		if !strings.Contains(gen.prompt, s) {
			t.Errorf("prompt missing %q", s)
		}
	}
}

func TestReply_TicketOption(t *testing.T) {
	tests := []struct {
		name    string
		message string
		hits    []models.ArticleHit
		reply   string
		want    bool
	}{
		{"question without articles", "my monitor keeps flickering", nil, "Try reconnecting the cable.", true},
		{"short message without articles", "monitor flicker", nil, "Try reconnecting the cable.", false},
		{"greeting without articles", "hello there friend", nil, "Hi! How can I help?", false},
		{"low confidence reply", "vpn setup", []models.ArticleHit{vpnArticle}, "I don't know, please Create a Ticket.", true},
		{"answered with articles", "how do I set up the vpn", []models.ArticleHit{vpnArticle}, "Install the client.", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&fakeSearcher{hits: tt.hits}, WithGenerator(&fakeGenerator{reply: tt.reply}))
			got, err := svc.Reply(context.Background(), models.ChatRequest{Message: tt.message})
			if err != nil {
				t.Fatal(err)
			}
			if got.ShowTicketOption != tt.want {
				t.Errorf("show_ticket_option = %v, want %v", got.ShowTicketOption, tt.want)
			}
			if got.Response != tt.reply {
				t.Errorf("response = %q, want %q", got.Response, tt.reply)
			}
		})
	}
}

func TestReply_BlankMessage(t *testing.T) {
	gen := &fakeGenerator{}
	svc := NewService(&fakeSearcher{}, WithGenerator(gen))
	if _, err := svc.Reply(context.Background(), models.ChatRequest{Message: "  "}); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
	if gen.calls != 0 {
		t.Errorf("generator should not be called for a blank message")
	}
}
