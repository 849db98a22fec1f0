package keyword

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/smartdesk/internal/models"
)

func newMemIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex("")
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func indexAll(t *testing.T, idx *BleveIndex, items ...*models.CannedResponse) {
	t.Helper()
	for _, c := range items {
		if err := idx.Index(context.Background(), c); err != nil {
			t.Fatalf("Index: %v", err)
		}
	}
}

func TestBleveIndex_TitleOutranksBody(t *testing.T) {
	idx := newMemIndex(t)
	indexAll(t, idx,
		&models.CannedResponse{ID: "body", Title: "Account locked",
			Body: "If you forgot your password, wait fifteen minutes before trying again and then contact the service desk."},
		&models.CannedResponse{ID: "title", Title: "Password reset", Body: "Use the self-service portal."},
	)

	results, err := idx.Search(context.Background(), "password", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].ID != "title" {
		t.Errorf("first result = %q, want title", results[0].ID)
	}
}

func TestBleveIndex_SearchTags(t *testing.T) {
	idx := newMemIndex(t)
	indexAll(t, idx, &models.CannedResponse{ID: "c1", Title: "Remote access", Body: "Install the client.",
		SearchTags: []string{"vpn", "wfh"}})

	results, err := idx.Search(context.Background(), "VPN", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "c1" {
		t.Errorf("results = %+v", results)
	}
}

func TestBleveIndex_Fuzzy(t *testing.T) {
	idx := newMemIndex(t)
	indexAll(t, idx, &models.CannedResponse{ID: "c1", Title: "Password reset", Body: "Portal link."})

	exact, err := idx.Search(context.Background(), "pasword", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(exact) != 0 {
		t.Errorf("exact search for typo returned %d results", len(exact))
	}

	fuzzy, err := idx.Search(context.Background(), "pasword", 10, &SearchOptions{FuzzyEnabled: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(fuzzy) != 1 {
		t.Errorf("fuzzy search returned %d results, want 1", len(fuzzy))
	}
}

func TestBleveIndex_EmptyQuery(t *testing.T) {
	idx := newMemIndex(t)
	indexAll(t, idx, &models.CannedResponse{ID: "c1", Title: "Anything", Body: "x"})
	results, err := idx.Search(context.Background(), "   ", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("blank query returned %d results", len(results))
	}
}

func TestBleveIndex_Delete(t *testing.T) {
	idx := newMemIndex(t)
	ctx := context.Background()
	indexAll(t, idx, &models.CannedResponse{ID: "c1", Title: "T", Body: "onlyinc1"})

	if err := idx.Delete(ctx, "c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	results, err := idx.Search(ctx, "onlyinc1", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results after delete, got %d", len(results))
	}
	if n, _ := idx.DocCount(); n != 0 {
		t.Errorf("DocCount = %d, want 0", n)
	}
}

func TestBleveIndex_ReopenOnDisk(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "sub", "canned")
	ctx := context.Background()

	idx1, err := NewBleveIndex(indexPath)
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	if err := idx1.Index(ctx, &models.CannedResponse{ID: "c1", Title: "Printer", Body: "uniqueword"}); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if err := idx1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(indexPath); err != nil {
		t.Fatalf("index path should exist: %v", err)
	}

	idx2, err := NewBleveIndex(indexPath)
	if err != nil {
		t.Fatalf("NewBleveIndex (reopen): %v", err)
	}
	defer func() { _ = idx2.Close() }()
	results, err := idx2.Search(ctx, "uniqueword", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("reopened index returned %d results, want 1", len(results))
	}
}
