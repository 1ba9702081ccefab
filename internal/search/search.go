package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/Skotchmaster/robotech_store/internal/models"
)

const DefaultIndex = "products"

var ErrSearch = errors.New("search backend error")

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

// Indexer receives the full product set after every seed.
type Indexer interface {
	IndexProducts(ctx context.Context, products []models.Product) error
}

// Searcher returns matching product ids, best match first.
type Searcher interface {
	Search(ctx context.Context, q string, from, size int) (total int64, ids []int, err error)
}

type Client struct {
	es    *elasticsearch.Client
	index string
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := es.Info(es.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	if err := check(res); err != nil {
		return nil, err
	}

	index := cfg.Index
	if index == "" {
		index = DefaultIndex
	}
	return &Client{es: es, index: index}, nil
}

func (c *Client) Index() string { return c.index }

func check(res *esapi.Response) error {
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("%w: %s: %s", ErrSearch, res.Status(), strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

const mapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "integer"},
      "name":        {"type": "text"},
      "description": {"type": "text"},
      "category":    {"type": "keyword"},
      "price":       {"type": "scaled_float", "scaling_factor": 100},
      "is_featured": {"type": "boolean"}
    }
  }
}`

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (c *Client) EnsureIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = c.es.Indices.Create(c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return check(res)
}

type document struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	IsFeatured  bool    `json:"is_featured"`
}

type bulkAction struct {
	Index struct {
		ID string `json:"_id"`
	} `json:"index"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID    string          `json:"_id"`
		Error json.RawMessage `json:"error"`
	} `json:"items"`
}

// IndexProducts writes every product with one bulk request, keyed by product id, and refreshes.
func (c *Client) IndexProducts(ctx context.Context, products []models.Product) error {
	if err := c.EnsureIndex(ctx); err != nil {
		return err
	}
	if len(products) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, p := range products {
		var a bulkAction
		a.Index.ID = strconv.Itoa(p.ID)
		if err := enc.Encode(a); err != nil {
			return err
		}
		if err := enc.Encode(document{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Category:    p.Category,
			Price:       p.Price.InexactFloat64(),
			IsFeatured:  p.IsFeatured,
		}); err != nil {
			return err
		}
	}

	res, err := c.es.Bulk(&buf,
		c.es.Bulk.WithContext(ctx),
		c.es.Bulk.WithIndex(c.index),
		c.es.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("bulk: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("%w: bulk %s: %s", ErrSearch, res.Status(), body)
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return fmt.Errorf("bulk response: %w", err)
	}
	if br.Errors {
		failed := 0
		for _, item := range br.Items {
			for _, r := range item {
				if len(r.Error) > 0 && string(r.Error) != "null" {
					failed++
				}
			}
		}
		return fmt.Errorf("%w: %d of %d documents failed", ErrSearch, failed, len(products))
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string   `json:"_id"`
			Source document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func searchBody(q string, from, size int) map[string]any {
	return map[string]any{
		"from":    from,
		"size":    size,
		"_source": []string{"id"},
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"sort": []any{
			map[string]any{"_score": "desc"},
			map[string]any{"id": "asc"},
		},
	}
}

func (c *Client) Search(ctx context.Context, q string, from, size int) (int64, []int, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, []int{}, nil
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchBody(q, from, size)); err != nil {
		return 0, nil, err
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(&buf),
		c.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return 0, nil, fmt.Errorf("%w: search %s: %s", ErrSearch, res.Status(), body)
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return 0, nil, fmt.Errorf("search response: %w", err)
	}

	ids := make([]int, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		id := h.Source.ID
		if id == 0 {
			if n, err := strconv.Atoi(h.ID); err == nil {
				id = n
			}
		}
		if id > 0 {
			ids = append(ids, id)
		}
	}
	return sr.Hits.Total.Value, ids, nil
}
