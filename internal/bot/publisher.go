// ABOUTME: Publisher port for getting bot-collected posts into the store.
// ABOUTME: StorePublisher writes in-process; IngestClient posts over the ingest boundary.

package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shutapp/shutapp-server/internal/store"
)

// Publisher publishes a post collected from a user and returns its id.
// Two implementations cover the two deployment topologies: in-process
// against the store, or over HTTP against the ingest endpoint.
type Publisher interface {
	Publish(ctx context.Context, text string) (int64, error)
}

// StorePublisher publishes posts directly to the shared store.
// Used when the bot and the API run in one process.
type StorePublisher struct {
	store store.Store
}

// NewStorePublisher creates a publisher writing through the given store.
func NewStorePublisher(s store.Store) *StorePublisher {
	return &StorePublisher{store: s}
}

// Publish creates the post in the store.
func (p *StorePublisher) Publish(ctx context.Context, text string) (int64, error) {
	return p.store.CreatePost(ctx, text)
}

// IngestClient publishes posts to a remote API process via POST /bot/post.
// Used when the bot runs as its own process.
type IngestClient struct {
	baseURL string
	secret  string
	client  *http.Client
}

// NewIngestClient creates a client for the ingest endpoint at baseURL.
func NewIngestClient(baseURL, secret string) *IngestClient {
	return &IngestClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		secret:  secret,
		client:  &http.Client{},
	}
}

// ingestRequest is the JSON request body for POST /bot/post.
type ingestRequest struct {
	Text string `json:"text"`
}

// ingestResponse is the JSON response body for POST /bot/post.
type ingestResponse struct {
	OK bool  `json:"ok"`
	ID int64 `json:"id"`
}

// errorResponse is the JSON error body returned by the API.
type errorResponse struct {
	Error string `json:"error"`
}

// Publish sends the post text to the ingest endpoint with the shared secret.
func (c *IngestClient) Publish(ctx context.Context, text string) (int64, error) {
	body, err := json.Marshal(ingestRequest{Text: text})
	if err != nil {
		return 0, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/bot/post", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Bot-Secret", c.secret)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, c.errorFromResponse(resp)
	}

	var out ingestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decoding response: %w", err)
	}
	if !out.OK {
		return 0, fmt.Errorf("ingest rejected post")
	}

	return out.ID, nil
}

// errorFromResponse extracts the error message from a non-200 response.
func (c *IngestClient) errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp errorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return fmt.Errorf("ingest error (%d): %s", resp.StatusCode, errResp.Error)
	}

	return fmt.Errorf("ingest returned status %d: %s", resp.StatusCode, string(body))
}
