package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/weavesync/weavesync/internal/common"
	"github.com/weavesync/weavesync/internal/models"
	"github.com/weavesync/weavesync/internal/record"
)

const (
	headerLastModified = "X-Last-Modified"
	headerTimestamp    = "X-Weave-Timestamp"
	headerUnmodified   = "X-If-Unmodified-Since"
)

// ErrConcurrentModification is returned when an upload is rejected because
// another device wrote to the collection after our lastTimestamp.
var ErrConcurrentModification = errors.New("collection modified concurrently")

// HTTPClient implements CollectionClient against a Weave-style storage
// endpoint: GET /storage/{collection}?newer=...&full=1 to fetch,
// POST /storage/{collection} to upload. Timestamps travel as integer
// milliseconds in the X-Last-Modified and X-Weave-Timestamp headers.
type HTTPClient struct {
	baseURL    string
	collection string
	tokens     TokenSource
	http       *http.Client
}

// NewHTTPClient returns a client for one collection. tokens supplies the
// bearer token attached to every request.
func NewHTTPClient(baseURL, collection string, tokens TokenSource) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		collection: collection,
		tokens:     tokens,
		http:       &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) collectionURL() string {
	return c.baseURL + "/storage/" + url.PathEscape(c.collection)
}

func (c *HTTPClient) authorize(ctx context.Context, req *http.Request) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func timestampHeader(h http.Header, name string) (models.Timestamp, error) {
	v := h.Get(name)
	if v == "" {
		return 0, fmt.Errorf("missing %s header", name)
	}
	ts, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s header %q: %w", name, v, err)
	}
	return models.Timestamp(ts), nil
}

func (c *HTTPClient) FetchSince(ctx context.Context, cursor models.Timestamp) (*Fetched, error) {
	u := fmt.Sprintf("%s?newer=%d&full=1", c.collectionURL(), int64(cursor))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if err := c.authorize(ctx, req); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, common.ErrorUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch failed: unexpected status %d", resp.StatusCode)
	}

	var records []record.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("fetch failed: bad response body: %w", err)
	}

	lastModified, err := timestampHeader(resp.Header, headerLastModified)
	if err != nil {
		return nil, err
	}
	fetchedAt, err := timestampHeader(resp.Header, headerTimestamp)
	if err != nil {
		return nil, err
	}

	return &Fetched{
		Records:        records,
		FetchTimestamp: fetchedAt,
		LastModified:   lastModified,
	}, nil
}

// uploadResponse mirrors the storage server's POST reply. Failed maps record
// ids to server-side rejection reasons.
type uploadResponse struct {
	Modified models.Timestamp  `json:"modified"`
	Success  []string          `json:"success"`
	Failed   map[string]string `json:"failed"`
}

func (c *HTTPClient) Upload(ctx context.Context, batch []record.Envelope, lastTimestamp models.Timestamp) (models.Timestamp, error) {
	body, err := json.Marshal(batch)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.collectionURL(), bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerUnmodified, strconv.FormatInt(int64(lastTimestamp), 10))
	if err := c.authorize(ctx, req); err != nil {
		return 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return 0, common.ErrorUnauthorized
	}
	if resp.StatusCode == http.StatusPreconditionFailed {
		return 0, ErrConcurrentModification
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("upload failed: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("upload failed: %w", err)
	}
	var ur uploadResponse
	if err := json.Unmarshal(data, &ur); err != nil {
		return 0, fmt.Errorf("upload failed: bad response body: %w", err)
	}
	if len(ur.Failed) > 0 {
		return 0, fmt.Errorf("upload failed: server rejected %d records", len(ur.Failed))
	}
	return ur.Modified, nil
}
