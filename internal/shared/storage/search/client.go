package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"cvio-backend/internal/shared/config"
)

var (
	// ErrNotFound is returned when a document or index does not exist.
	ErrNotFound = errors.New("search: not found")

	// ErrConflict is returned by Create when the id is taken.
	ErrConflict = errors.New("search: document exists")
)

// Client wraps the Elasticsearch client with the few document operations the
// CV and skill stores need.
type Client struct {
	ES *elasticsearch.Client
}

// Hit is one search result.
type Hit struct {
	ID     string
	Source json.RawMessage
}

// New creates a client from configuration. No request is sent.
func New(cfg config.ElasticsearchConfig) (*Client, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Client{ES: es}, nil
}

// Ping tests the connection.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := c.ES.Ping(c.ES.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

// EnsureIndex creates index with mapping unless it already exists.
func (c *Client) EnsureIndex(ctx context.Context, index, mapping string) error {
	res, err := c.ES.Indices.Exists([]string{index}, c.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists %s: %w", index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("index exists %s: %s", index, res.Status())
	}

	opts := []func(*esapi.IndicesCreateRequest){c.ES.Indices.Create.WithContext(ctx)}
	if strings.TrimSpace(mapping) != "" {
		opts = append(opts, c.ES.Indices.Create.WithBody(strings.NewReader(mapping)))
	}
	res, err = c.ES.Indices.Create(index, opts...)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()
	// Another instance may have created it in between.
	if res.IsError() && !strings.Contains(readBody(res.Body), "resource_already_exists_exception") {
		return fmt.Errorf("create index %s: %s", index, res.Status())
	}
	return nil
}

// Put indexes doc under id and waits for it to become searchable.
func (c *Client) Put(ctx context.Context, index, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	res, err := c.ES.Index(index, bytes.NewReader(body),
		c.ES.Index.WithContext(ctx),
		c.ES.Index.WithDocumentID(id),
		c.ES.Index.WithRefresh("wait_for"),
	)
	if err != nil {
		return fmt.Errorf("index document %s/%s: %w", index, id, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index document %s/%s: %s", index, id, res.Status())
	}
	return nil
}

// Create indexes doc under id unless a document with that id exists.
func (c *Client) Create(ctx context.Context, index, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	res, err := c.ES.Create(index, id, bytes.NewReader(body),
		c.ES.Create.WithContext(ctx),
		c.ES.Create.WithRefresh("wait_for"),
	)
	if err != nil {
		return fmt.Errorf("create document %s/%s: %w", index, id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusConflict {
		return ErrConflict
	}
	if res.IsError() {
		return fmt.Errorf("create document %s/%s: %s", index, id, res.Status())
	}
	return nil
}

// Get returns the _source of a document.
func (c *Client) Get(ctx context.Context, index, id string) (json.RawMessage, error) {
	res, err := c.ES.Get(index, id, c.ES.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get document %s/%s: %w", index, id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("get document %s/%s: %s", index, id, res.Status())
	}

	var payload struct {
		Found  bool            `json:"found"`
		Source json.RawMessage `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode document %s/%s: %w", index, id, err)
	}
	if !payload.Found {
		return nil, ErrNotFound
	}
	return payload.Source, nil
}

// Delete removes a document.
func (c *Client) Delete(ctx context.Context, index, id string) error {
	res, err := c.ES.Delete(index, id,
		c.ES.Delete.WithContext(ctx),
		c.ES.Delete.WithRefresh("wait_for"),
	)
	if err != nil {
		return fmt.Errorf("delete document %s/%s: %w", index, id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.IsError() {
		return fmt.Errorf("delete document %s/%s: %s", index, id, res.Status())
	}
	return nil
}

// Search runs query against index. A missing index yields no hits.
func (c *Client) Search(ctx context.Context, index string, query map[string]any, size int) ([]Hit, error) {
	body := map[string]any{"size": size}
	if query != nil {
		body["query"] = query
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	res, err := c.ES.Search(
		c.ES.Search.WithContext(ctx),
		c.ES.Search.WithIndex(index),
		c.ES.Search.WithBody(bytes.NewReader(raw)),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", index, res.Status())
	}

	var payload struct {
		Hits struct {
			Hits []struct {
				ID     string          `json:"_id"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	hits := make([]Hit, 0, len(payload.Hits.Hits))
	for _, h := range payload.Hits.Hits {
		hits = append(hits, Hit{ID: h.ID, Source: h.Source})
	}
	return hits, nil
}

func readBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	return string(b)
}
