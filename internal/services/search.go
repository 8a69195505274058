package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront_back_end/internal/logging"
	"storefront_back_end/internal/models"
)

const ProductsIndex = "products"

var ErrSearchUnavailable = errors.New("search index unavailable")

// SearchIndex keeps the products index in Elasticsearch. A nil *SearchIndex is disabled.
type SearchIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewSearchIndex(es *elasticsearch.Client) *SearchIndex {
	if es == nil {
		return nil
	}
	return &SearchIndex{es: es, index: ProductsIndex}
}

type productDoc struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Category     string    `json:"category,omitempty"`
	Price        float64   `json:"price"`
	Sizes        []string  `json:"sizes"`
	Colors       []string  `json:"colors"`
	IsFeatured   bool      `json:"is_featured"`
	IsNewArrival bool      `json:"is_new_arrival"`
	CreatedAt    time.Time `json:"created_at"`
}

func docFor(p models.Product) productDoc {
	doc := productDoc{
		ID:           p.ID.String(),
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		Price:        p.Price.InexactFloat64(),
		Sizes:        p.Sizes,
		Colors:       p.Colors,
		IsFeatured:   p.IsFeatured,
		IsNewArrival: p.IsNewArrival,
		CreatedAt:    p.CreatedAt,
	}
	if p.Category != nil {
		doc.Category = p.Category.Name
	}
	return doc
}

func (s *SearchIndex) IndexProduct(ctx context.Context, p models.Product) error {
	if s == nil {
		return ErrSearchUnavailable
	}
	data, err := json.Marshal(docFor(p))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: p.ID.String(),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return fmt.Errorf("index %s: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index %s: %s", p.ID, res.String())
	}
	return nil
}

func (s *SearchIndex) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if s == nil {
		return ErrSearchUnavailable
	}
	req := esapi.DeleteRequest{Index: s.index, DocumentID: id.String(), Refresh: "true"}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete %s: %s", id, res.String())
	}
	return nil
}

// IndexAsync reindexes p in the background, logging failures.
func (s *SearchIndex) IndexAsync(p models.Product) {
	if s == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.IndexProduct(ctx, p); err != nil {
			logging.L().Warn("⚠️ Product indexing failed", zap.String("product", p.Name), zap.Error(err))
			return
		}
		logging.L().Debug("✅ Product indexed", zap.String("product", p.Name))
	}()
}

func (s *SearchIndex) DeleteAsync(id uuid.UUID) {
	if s == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.DeleteProduct(ctx, id); err != nil {
			logging.L().Warn("⚠️ Product removal from index failed", zap.Stringer("product_id", id), zap.Error(err))
		}
	}()
}

// Search returns matching product ids, best match first.
func (s *SearchIndex) Search(ctx context.Context, term string, limit int) ([]uuid.UUID, error) {
	if s == nil {
		return nil, ErrSearchUnavailable
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(buildSearchQuery(term, limit)); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	req := esapi.SearchRequest{Index: []string{s.index}, Body: &buf}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchUnavailable, res.Status())
	}
	return decodeHits(res.Body)
}

func buildSearchQuery(term string, limit int) map[string]any {
	if limit <= 0 {
		limit = 50
	}
	fields := []string{"name^3", "description", "category^2"}
	return map[string]any{
		"size":    limit,
		"_source": []string{"id"},
		"query": map[string]any{
			"bool": map[string]any{
				"should": []any{
					map[string]any{"multi_match": map[string]any{
						"query":     term,
						"fields":    fields,
						"fuzziness": "AUTO",
					}},
					map[string]any{"multi_match": map[string]any{
						"query":  term,
						"fields": fields,
						"type":   "phrase_prefix",
					}},
				},
				"minimum_should_match": 1,
			},
		},
		"sort": []any{"_score", map[string]any{"created_at": map[string]string{"order": "desc"}}},
	}
}

func decodeHits(r io.Reader) ([]uuid.UUID, error) {
	var body struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode hits: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(body.Hits.Hits))
	for _, h := range body.Hits.Hits {
		if id, err := uuid.Parse(h.ID); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
