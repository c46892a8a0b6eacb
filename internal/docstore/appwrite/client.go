// Package appwrite implements the docstore interfaces against the
// Appwrite REST API. Documents live in database collections and file
// content lives in storage buckets; both are reached through the same
// authenticated client.
package appwrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vaultdrive/docsearch-mcp/internal/docstore"
	"github.com/vaultdrive/docsearch-mcp/pkg/types"
)

// Config holds the connection settings for an Appwrite project.
type Config struct {
	Endpoint  string // e.g. https://cloud.appwrite.io/v1
	ProjectID string
	APIKey    string
	Timeout   time.Duration
}

// Client talks to a single Appwrite project. It is safe for concurrent use.
type Client struct {
	endpoint   string
	projectID  string
	apiKey     string
	databaseID string
	httpClient *http.Client
}

var (
	_ docstore.DocumentStore = (*Client)(nil)
	_ docstore.BlobStore     = (*Client)(nil)
)

// New validates the config and returns a Client bound to databaseID.
func New(cfg Config, databaseID string) (*Client, error) {
	if cfg.Endpoint == "" || cfg.ProjectID == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("appwrite endpoint, project id, and api key are required: %w", types.ErrNotConfigured)
	}
	if databaseID == "" {
		return nil, fmt.Errorf("appwrite database id is required: %w", types.ErrNotConfigured)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		projectID:  cfg.ProjectID,
		apiKey:     cfg.APIKey,
		databaseID: databaseID,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) ListDocuments(ctx context.Context, collectionID string, queries ...docstore.Query) ([]docstore.Document, error) {
	path := fmt.Sprintf("/databases/%s/collections/%s/documents", c.databaseID, collectionID)

	params := url.Values{}
	for _, q := range queries {
		encoded, err := encodeQuery(q)
		if err != nil {
			return nil, err
		}
		params.Add("queries[]", encoded)
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp struct {
		Total     int               `json:"total"`
		Documents []json.RawMessage `json:"documents"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list documents in %s: %w", collectionID, err)
	}

	docs := make([]docstore.Document, 0, len(resp.Documents))
	for _, raw := range resp.Documents {
		doc, err := decodeDocument(raw)
		if err != nil {
			return nil, fmt.Errorf("list documents in %s: %w", collectionID, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (c *Client) GetDocument(ctx context.Context, collectionID, documentID string) (docstore.Document, error) {
	path := fmt.Sprintf("/databases/%s/collections/%s/documents/%s", c.databaseID, collectionID, documentID)

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return docstore.Document{}, fmt.Errorf("get document %s/%s: %w", collectionID, documentID, err)
	}
	return decodeDocument(raw)
}

func (c *Client) CreateDocument(ctx context.Context, collectionID, documentID string, data map[string]any) (docstore.Document, error) {
	path := fmt.Sprintf("/databases/%s/collections/%s/documents", c.databaseID, collectionID)
	body := map[string]any{
		"documentId": documentID,
		"data":       data,
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, path, body, &raw); err != nil {
		return docstore.Document{}, fmt.Errorf("create document in %s: %w", collectionID, err)
	}
	return decodeDocument(raw)
}

func (c *Client) UpdateDocument(ctx context.Context, collectionID, documentID string, data map[string]any) (docstore.Document, error) {
	path := fmt.Sprintf("/databases/%s/collections/%s/documents/%s", c.databaseID, collectionID, documentID)
	body := map[string]any{"data": data}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPatch, path, body, &raw); err != nil {
		return docstore.Document{}, fmt.Errorf("update document %s/%s: %w", collectionID, documentID, err)
	}
	return decodeDocument(raw)
}

func (c *Client) DeleteDocument(ctx context.Context, collectionID, documentID string) error {
	path := fmt.Sprintf("/databases/%s/collections/%s/documents/%s", c.databaseID, collectionID, documentID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete document %s/%s: %w", collectionID, documentID, err)
	}
	return nil
}

func (c *Client) DownloadFile(ctx context.Context, bucketID, fileID string) ([]byte, error) {
	path := fmt.Sprintf("/storage/buckets/%s/files/%s/download", bucketID, fileID)

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file %s/%s: %w: %v", bucketID, fileID, types.ErrRemoteService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file %s/%s: %w", bucketID, fileID, statusError(resp))
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("download file %s/%s: %w: %v", bucketID, fileID, types.ErrRemoteService, err)
	}
	return content, nil
}

func (c *Client) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	path := fmt.Sprintf("/storage/buckets/%s/files/%s", bucketID, fileID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete file %s/%s: %w", bucketID, fileID, err)
	}
	return nil
}

// do issues a JSON request and decodes the response into out when out is
// non-nil. Non-2xx statuses are mapped to the shared error sentinels.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := c.newRequest(ctx, method, path, reqBody)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrRemoteService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Appwrite-Project", c.projectID)
	req.Header.Set("X-Appwrite-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// statusError maps an Appwrite error response to a sentinel error, keeping
// the server's message for context.
func statusError(resp *http.Response) error {
	var apiErr struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &apiErr)
	msg := apiErr.Message
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", types.ErrAccessDenied, msg)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", types.ErrNotFound, msg)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", types.ErrRateLimited, msg)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d: %s", types.ErrRemoteService, resp.StatusCode, msg)
	case resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(msg), "quer"):
		return fmt.Errorf("%w: %s", docstore.ErrUnsupportedQuery, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", types.ErrValidation, resp.StatusCode, msg)
	}
}

// encodeQuery serializes one query to the JSON form the API expects.
// Nested queries inside an "or" are embedded as objects in values.
func encodeQuery(q docstore.Query) (string, error) {
	obj, err := queryObject(q)
	if err != nil {
		return "", err
	}
	encoded, err := json.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("encode query: %w", err)
	}
	return string(encoded), nil
}

func queryObject(q docstore.Query) (map[string]any, error) {
	obj := map[string]any{"method": q.Method}
	switch q.Method {
	case docstore.MethodOr:
		nested := make([]any, 0, len(q.Nested))
		for _, n := range q.Nested {
			nObj, err := queryObject(n)
			if err != nil {
				return nil, err
			}
			nested = append(nested, nObj)
		}
		obj["values"] = nested
	case docstore.MethodLimit:
		obj["values"] = q.Values
	default:
		obj["attribute"] = q.Attribute
		obj["values"] = q.Values
	}
	return obj, nil
}

// decodeDocument splits the reserved $-prefixed metadata fields from the
// user attributes.
func decodeDocument(raw json.RawMessage) (docstore.Document, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return docstore.Document{}, fmt.Errorf("decode document: %w", err)
	}

	doc := docstore.Document{Data: make(map[string]any, len(fields))}
	for k, v := range fields {
		switch k {
		case "$id":
			doc.ID, _ = v.(string)
		case "$createdAt":
			doc.CreatedAt = parseTimestamp(v)
		case "$updatedAt":
			doc.UpdatedAt = parseTimestamp(v)
		case "$collectionId", "$databaseId", "$permissions", "$sequence":
			// metadata the engine does not use
		default:
			doc.Data[k] = v
		}
	}
	return doc, nil
}

func parseTimestamp(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return ts
}
