package cvs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"cvio-backend/internal/shared/storage/search/searchtest"
)

func TestESRepoLifecycle(t *testing.T) {
	client, fake := searchtest.NewClient(t)
	repo := &ESRepo{Client: client, Index: "cvs"}
	ctx := context.Background()

	if err := repo.EnsureIndex(ctx); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	doc := json.RawMessage(`{"familyName":"Mustermann","id":"cv-1","locality":"Musterstadt","skills":{"SK2":"2","SK1":"1"}}`)
	if err := repo.Create(ctx, CV{ID: "cv-1", Document: doc}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.Get(ctx, "cv-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Document) != string(doc) {
		t.Fatalf("expected source unchanged, got %s", got.Document)
	}

	if err := repo.Update(ctx, CV{ID: "missing", Document: doc}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update: expected ErrNotFound, got %v", err)
	}

	list, err := repo.List(ctx, "muster stadt")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one hit, got %d", len(list))
	}
	var body struct {
		Query struct {
			QueryString struct {
				Query string `json:"query"`
			} `json:"query_string"`
		} `json:"query"`
	}
	if err := json.Unmarshal(fake.LastQuery(), &body); err != nil {
		t.Fatalf("decode query: %v", err)
	}
	if q := body.Query.QueryString.Query; q != `*muster\ stadt*` {
		t.Fatalf("unexpected query_string %q", q)
	}

	suggestions, err := repo.Suggestions(ctx, "muster", 5)
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if len(suggestions) != 2 || suggestions[0] != "Mustermann" || suggestions[1] != "Musterstadt" {
		t.Fatalf("unexpected suggestions %v", suggestions)
	}

	if err := repo.Delete(ctx, "cv-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, "cv-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete: expected ErrNotFound, got %v", err)
	}
	if fake.Docs("cvs") != 0 {
		t.Fatalf("expected empty index")
	}
}

func TestEscapeQueryString(t *testing.T) {
	if got := escapeQueryString(`a+b<c>(d)`); got != `a\+bc\(d\)` {
		t.Fatalf("unexpected escape %q", got)
	}
}
