package extractor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vaultdrive/docsearch-mcp/pkg/types"
)

const (
	DefaultTranscribeModel = "gemini-2.0-flash"
	defaultTranscribeBase  = "https://generativelanguage.googleapis.com/v1beta"

	transcribePrompt = "Extract all text from this file verbatim. " +
		"For audio or video, transcribe the speech. " +
		"Return only the extracted text, no commentary."
)

// RemoteTranscriber calls a generative model with inline file content and
// asks for a verbatim transcription.
type RemoteTranscriber struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewRemoteTranscriber creates a transcriber. baseURL overrides the API
// endpoint; empty means the public endpoint.
func NewRemoteTranscriber(apiKey, baseURL string) (*RemoteTranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("transcriber api key not set: %w", types.ErrNotConfigured)
	}
	if baseURL == "" {
		baseURL = defaultTranscribeBase
	}
	return &RemoteTranscriber{
		apiKey:  apiKey,
		model:   DefaultTranscribeModel,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

var _ Transcriber = (*RemoteTranscriber)(nil)

func (r *RemoteTranscriber) Transcribe(ctx context.Context, content []byte, mimeType string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{{
			"parts": []map[string]any{
				{"text": transcribePrompt},
				{"inline_data": map[string]any{
					"mime_type": mimeType,
					"data":      base64.StdEncoding.EncodeToString(content),
				}},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", r.baseURL, r.model, r.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("api call: %w: %v", types.ErrRemoteService, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("api error %d: %s: %w", resp.StatusCode, string(bodyBytes), types.ErrRateLimited)
		}
		return "", fmt.Errorf("api error %d: %s: %w", resp.StatusCode, string(bodyBytes), types.ErrRemoteService)
	}

	var apiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(apiResp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned: %w", types.ErrRemoteService)
	}

	var out strings.Builder
	for _, part := range apiResp.Candidates[0].Content.Parts {
		out.WriteString(part.Text)
	}
	return out.String(), nil
}
