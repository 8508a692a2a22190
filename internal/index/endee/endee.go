// Package endee is a minimal REST client to the Endee vector database,
// implementing the index.Store port.
package endee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"docqa/internal/config"
	"docqa/internal/index"
)

const defaultBatchSize = 500 // server rejects upserts above 1000 vectors

// Client talks to an Endee server over HTTP.
type Client struct {
	baseURL     string
	metric      string
	buildParams map[string]any
	batchSize   int
	client      *http.Client
}

func NewClient(cfg *config.IndexConfig) *Client {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		metric:      cfg.Metric,
		buildParams: cfg.BuildParams,
		batchSize:   batch,
		client:      &http.Client{Timeout: 60 * time.Second},
	}
}

// EnsureIndex creates the index if absent. HTTP 409 means it already exists
// and is treated as success. The create payload is assembled by hand instead
// of going through an SDK request type: the server accepts precision values
// the client-side validation rejects, so configured build_params are merged
// in verbatim. Known backend-compatibility workaround, not a stable contract.
func (c *Client) EnsureIndex(ctx context.Context, name string, dimension int) error {
	payload := map[string]any{
		"index_name": name,
		"dim":        dimension,
		"space_type": c.metric,
	}
	for k, v := range c.buildParams {
		payload[k] = v
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return &index.Error{Op: "create", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/index/create", bytes.NewReader(data))
	if err != nil {
		return &index.Error{Op: "create", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &index.Error{Op: "create", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		log.Debug().Str("index", name).Msg("Index already exists")
		return nil
	}
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return &index.Error{Op: "create", Err: fmt.Errorf("http %d: %s", resp.StatusCode, string(body))}
	}
	return nil
}

type upsertVector struct {
	ID     string     `json:"id"`
	Vector []float32  `json:"vector"`
	Meta   vectorMeta `json:"meta"`
}

type vectorMeta struct {
	Text     string `json:"text"`
	Page     int    `json:"page"`
	Filename string `json:"filename"`
}

// Upsert writes records in batches of at most the configured batch size.
func (c *Client) Upsert(ctx context.Context, name string, records []index.Record) error {
	for start := 0; start < len(records); start += c.batchSize {
		end := start + c.batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := c.upsertBatch(ctx, name, records[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) upsertBatch(ctx context.Context, name string, records []index.Record) error {
	vectors := make([]upsertVector, len(records))
	for i, r := range records {
		vectors[i] = upsertVector{
			ID:     r.ID,
			Vector: r.Vector,
			Meta: vectorMeta{
				Text:     r.Meta.Text,
				Page:     r.Meta.PageNumber,
				Filename: r.Meta.SourceFilename,
			},
		}
	}
	body := map[string]any{"vectors": vectors}
	if err := c.postJSON(ctx, fmt.Sprintf("%s/index/%s/vectors/upsert", c.baseURL, name), body, nil); err != nil {
		return &index.Error{Op: "upsert", Err: err}
	}
	log.Debug().Str("index", name).Int("count", len(records)).Msg("Upserted batch")
	return nil
}

// Query returns the topK nearest vectors ordered by descending similarity.
func (c *Client) Query(ctx context.Context, name string, vector []float32, topK int) ([]index.Result, error) {
	if topK <= 0 {
		return nil, &index.Error{Op: "query", Err: fmt.Errorf("top_k must be positive, got %d", topK)}
	}
	req := map[string]any{
		"vector": vector,
		"top_k":  topK,
	}
	var resp struct {
		Results []struct {
			Similarity float64    `json:"similarity"`
			Meta       vectorMeta `json:"meta"`
		} `json:"results"`
	}
	if err := c.postJSON(ctx, fmt.Sprintf("%s/index/%s/search", c.baseURL, name), req, &resp); err != nil {
		return nil, &index.Error{Op: "query", Err: err}
	}
	results := make([]index.Result, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, index.Result{
			Meta: index.Metadata{
				Text:           r.Meta.Text,
				PageNumber:     r.Meta.Page,
				SourceFilename: r.Meta.Filename,
			},
			Score: r.Similarity,
		})
	}
	return results, nil
}

func (c *Client) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(respBody))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
