package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"ragbench/internal/core/domain"
)

// Client talks to Qdrant over its HTTP API. Chunks are stored one point
// per chunk with a monotonically increasing "seq" payload so equal
// similarity resolves to the first-indexed chunk.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
	nextSeq           int64
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		nextSeq:    seqSeed(),
	}
}

// seqSeed returns the wall clock in microseconds. Points persist in
// Qdrant across process restarts, so the counter must restart above any
// previously assigned value; microseconds stay within float64's exact
// integer range, which JSON payload round-tripping requires.
func seqSeed() int64 {
	return time.Now().UnixMicro()
}

func (c *Client) Insert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := c.ensureCollection(ctx, len(chunks[0].Embedding)); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	c.ensureMu.Lock()
	seqBase := c.nextSeq
	c.nextSeq += int64(len(chunks))
	c.ensureMu.Unlock()

	points := make([]point, 0, len(chunks))
	for i, chunk := range chunks {
		payload := map[string]any{
			"document_name": chunk.DocumentName,
			"source_path":   chunk.SourcePath,
			"position":      chunk.Position,
			"text":          chunk.Text,
			"seq":           seqBase + int64(i),
		}
		for k, v := range chunk.Metadata {
			payload["meta_"+k] = v
		}
		points = append(points, point{
			ID:      chunk.ID,
			Vector:  chunk.Embedding,
			Payload: payload,
		})
	}

	body, err := json.Marshal(map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("marshal upsert body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	return c.do(ctx, http.MethodPut, url, body, nil, "upsert")
}

func (c *Client) Nearest(ctx context.Context, vector []float32, k int) ([]domain.RetrievedCandidate, error) {
	body, err := json.Marshal(map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	var searchResp struct {
		Result []struct {
			ID      string         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodPost, url, body, &searchResp, "search"); err != nil {
		// a collection that was never created is just an empty index
		if strings.Contains(err.Error(), "404") {
			return nil, nil
		}
		return nil, err
	}

	type scored struct {
		candidate domain.RetrievedCandidate
		seq       int64
	}
	out := make([]scored, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, scored{
			candidate: domain.RetrievedCandidate{
				Chunk: domain.Chunk{
					ID:           r.ID,
					Text:         getStringPayload(r.Payload, "text"),
					DocumentName: getStringPayload(r.Payload, "document_name"),
					SourcePath:   getStringPayload(r.Payload, "source_path"),
					Position:     getIntPayload(r.Payload, "position"),
					Metadata:     getMetaPayload(r.Payload),
				},
				Score: r.Score,
			},
			seq: int64(getIntPayload(r.Payload, "seq")),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].candidate.Score != out[j].candidate.Score {
			return out[i].candidate.Score > out[j].candidate.Score
		}
		return out[i].seq < out[j].seq
	})

	candidates := make([]domain.RetrievedCandidate, 0, len(out))
	for _, s := range out {
		candidates = append(candidates, s.candidate)
	}
	return candidates, nil
}

func (c *Client) DeleteByDocument(ctx context.Context, documentName string) error {
	body, err := json.Marshal(map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key": "document_name",
					"match": map[string]any{
						"value": documentName,
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("marshal delete body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", c.baseURL, c.collection)
	err = c.do(ctx, http.MethodPost, url, body, nil, "delete")
	if err != nil && strings.Contains(err.Error(), "404") {
		// nothing indexed yet
		return nil
	}
	return err
}

func (c *Client) Clear(ctx context.Context) error {
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodDelete, url, nil, nil, "drop collection"); err != nil {
		if strings.Contains(err.Error(), "404") {
			return nil
		}
		return err
	}

	c.ensureMu.Lock()
	c.ensuredCollection = false
	c.ensuredVectorSize = 0
	c.nextSeq = seqSeed()
	c.ensureMu.Unlock()
	return nil
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	body, err := json.Marshal(map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	})
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if it already exists
	if resp.StatusCode == http.StatusConflict {
		c.markCollectionEnsured(vectorSize)
		return nil
	}
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			return fmt.Errorf("qdrant ensure collection status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("qdrant ensure collection status: %s", resp.Status)
	}
	c.markCollectionEnsured(vectorSize)
	return nil
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, out any, operation string) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			return fmt.Errorf("qdrant %s status: %d %s: %s", operation, resp.StatusCode, resp.Status, msg)
		}
		return fmt.Errorf("qdrant %s status: %d %s", operation, resp.StatusCode, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
	}
	return nil
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getIntPayload(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}

func getMetaPayload(payload map[string]any) map[string]string {
	var out map[string]string
	for k, v := range payload {
		name, ok := strings.CutPrefix(k, "meta_")
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[name] = fmt.Sprintf("%v", v)
	}
	return out
}
