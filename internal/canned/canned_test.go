package canned

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hyperjump/smartdesk/internal/keyword"
	"github.com/hyperjump/smartdesk/internal/models"
	"github.com/hyperjump/smartdesk/internal/storage"
)

func newService(t *testing.T) (*Service, *storage.SQLiteStorage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	idx, err := keyword.NewBleveIndex("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return NewService(store, idx, nil), store
}

func TestService_CreateAndSearch(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	c := &models.CannedResponse{Title: " Password reset ", Body: "Use the portal.", SearchTags: []string{"Login", "login", " "}}
	if err := svc.Create(ctx, c); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"login"}, c.SearchTags); diff != "" {
		t.Errorf("tags (-want +got):\n%s", diff)
	}

	got, err := svc.Search(ctx, "pasword", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != c.ID || got[0].Title != "Password reset" {
		t.Errorf("Search() = %+v", got)
	}
}

func TestService_CreateValidation(t *testing.T) {
	svc, _ := newService(t)
	err := svc.Create(context.Background(), &models.CannedResponse{Title: "only title"})
	if !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestService_BlankQueryListsAll(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	for _, title := range []string{"b reply", "a reply"} {
		if err := svc.Create(ctx, &models.CannedResponse{Title: title, Body: "body"}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := svc.Search(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Title != "a reply" {
		t.Errorf("Search(\"\") = %+v", got)
	}
}

func TestService_Sync(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	if err := store.CreateCannedResponse(ctx, &models.CannedResponse{Title: "Toner", Body: "Replace cartridge"}); err != nil {
		t.Fatal(err)
	}
	if got, _ := svc.Search(ctx, "toner", 5); len(got) != 0 {
		t.Fatalf("unsynced index returned %d results", len(got))
	}
	n, err := svc.Sync(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Sync() = %d, %v", n, err)
	}
	if got, _ := svc.Search(ctx, "toner", 5); len(got) != 1 {
		t.Errorf("synced index returned %d results", len(got))
	}
}
