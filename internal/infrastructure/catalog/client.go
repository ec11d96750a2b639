package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andreyxaxa/Resource-Service/internal/entity"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	_defaultConnectTimeout = 2 * time.Second
	_defaultReadTimeout    = 5 * time.Second

	maxErrorBodySize = 8 << 10

	songsPath       = "/songs"
	songsBulkPath   = "/songs/bulk"
	deleteBulkPath  = "/songs/delete-bulk"
	idQueryParam    = "id"
	jsonContentType = "application/json"
)

type bulkCreateRequest struct {
	Songs []json.RawMessage `json:"songs"`
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// Client is the song catalog REST client.
type Client struct {
	baseURL string

	connectTimeout time.Duration
	readTimeout    time.Duration
	transport      http.RoundTripper

	http *http.Client
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		connectTimeout: _defaultConnectTimeout,
		readTimeout:    _defaultReadTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		dialer := &net.Dialer{
			Timeout:   c.connectTimeout,
			KeepAlive: 30 * time.Second,
		}

		tr := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // stdlib default
		tr.DialContext = dialer.DialContext
		tr.ResponseHeaderTimeout = c.readTimeout
		c.transport = tr
	}

	c.http = &http.Client{
		Transport: otelhttp.NewTransport(c.transport),
		Timeout:   c.connectTimeout + c.readTimeout,
	}

	return c
}

// CreateSong posts one metadata record. payload already carries the id.
func (c *Client) CreateSong(ctx context.Context, payload json.RawMessage) error {
	return c.do(ctx, http.MethodPost, songsPath, nil, []byte(payload))
}

func (c *Client) CreateSongsBulk(ctx context.Context, songs []json.RawMessage) error {
	body, err := json.Marshal(bulkCreateRequest{Songs: songs})
	if err != nil {
		return entity.NewDeliveryError(fmt.Sprintf("serialize bulk create request: %v", err), err)
	}

	return c.do(ctx, http.MethodPost, songsBulkPath, nil, body)
}

// DeleteSongs deletes by a comma separated id list in the query string.
func (c *Client) DeleteSongs(ctx context.Context, ids []int64) error {
	query := url.Values{}
	query.Set(idQueryParam, joinIDs(ids))

	return c.do(ctx, http.MethodDelete, songsPath, query, nil)
}

func (c *Client) DeleteSongsBulk(ctx context.Context, ids []int64) error {
	body, err := json.Marshal(bulkDeleteRequest{IDs: ids})
	if err != nil {
		return entity.NewDeliveryError(fmt.Sprintf("serialize bulk delete request: %v", err), err)
	}

	return c.do(ctx, http.MethodPost, deleteBulkPath, nil, body)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return entity.NewDeliveryError(fmt.Sprintf("build request: %v", err), err)
	}

	if body != nil {
		req.Header.Set("Content-Type", jsonContentType)
	}
	req.Header.Set("Accept", jsonContentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return entity.NewConnectionError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))

		return nil
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return entity.NewHTTPStatusError(resp.StatusCode, "")
	}

	return entity.NewHTTPStatusError(resp.StatusCode, strings.TrimSpace(string(b)))
}

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}

	return strings.Join(parts, ",")
}
