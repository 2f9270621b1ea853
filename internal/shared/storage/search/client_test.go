package search_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvio-backend/internal/shared/config"
	"cvio-backend/internal/shared/storage/search"
	"cvio-backend/internal/shared/storage/search/searchtest"
)

func TestNewBuildsClient(t *testing.T) {
	c, err := search.New(config.ElasticsearchConfig{Addresses: []string{"http://localhost:9200"}, Username: "elastic", Password: "x"})
	require.NoError(t, err)
	assert.NotNil(t, c.ES)
}

func TestDocumentLifecycle(t *testing.T) {
	client, _ := searchtest.NewClient(t)
	ctx := context.Background()

	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.EnsureIndex(ctx, "cvs", `{"mappings":{}}`))
	require.NoError(t, client.EnsureIndex(ctx, "cvs", ""))

	require.NoError(t, client.Put(ctx, "cvs", "cv-1", map[string]any{"familyName": "Mustermann"}))

	src, err := client.Get(ctx, "cvs", "cv-1")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(src, &doc))
	assert.Equal(t, "Mustermann", doc["familyName"])

	hits, err := client.Search(ctx, "cvs", map[string]any{"match_all": map[string]any{}}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "cv-1", hits[0].ID)

	require.NoError(t, client.Delete(ctx, "cvs", "cv-1"))
	_, err = client.Get(ctx, "cvs", "cv-1")
	assert.True(t, errors.Is(err, search.ErrNotFound))
	assert.True(t, errors.Is(client.Delete(ctx, "cvs", "cv-1"), search.ErrNotFound))
}

func TestSearchMissingIndexIsEmpty(t *testing.T) {
	client, _ := searchtest.NewClient(t)
	hits, err := client.Search(context.Background(), "absent", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchSendsQueryAndPropagatesErrors(t *testing.T) {
	client, fake := searchtest.NewClient(t)
	ctx := context.Background()
	require.NoError(t, client.Put(ctx, "skills", "SK1", map[string]any{"name": "Go"}))

	_, err := client.Search(ctx, "skills", map[string]any{"term": map[string]any{"category": "lang"}}, 5)
	require.NoError(t, err)
	assert.JSONEq(t, `{"size":5,"query":{"term":{"category":"lang"}}}`, string(fake.LastQuery()))

	fake.FailAll()
	_, err = client.Search(ctx, "skills", nil, 5)
	assert.Error(t, err)
	assert.Error(t, client.Ping(ctx))
}

func TestCreateRejectsExistingID(t *testing.T) {
	client, fake := searchtest.NewClient(t)
	ctx := context.Background()

	require.NoError(t, client.Create(ctx, "skills", "SK1", map[string]any{"name": "Go"}))
	err := client.Create(ctx, "skills", "SK1", map[string]any{"name": "Rust"})
	assert.ErrorIs(t, err, search.ErrConflict)
	assert.Equal(t, 1, fake.Docs("skills"))

	src, err := client.Get(ctx, "skills", "SK1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Go"}`, string(src))
}
