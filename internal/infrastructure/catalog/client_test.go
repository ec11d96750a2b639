package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andreyxaxa/Resource-Service/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method      string
	path        string
	query       string
	contentType string
	body        string
}

func newCatalogServer(t *testing.T, status int, respBody string) (*httptest.Server, <-chan recordedRequest) {
	t.Helper()

	requests := make(chan recordedRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)

		requests <- recordedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			query:       r.URL.Query().Get("id"),
			contentType: r.Header.Get("Content-Type"),
			body:        string(b),
		}

		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	t.Cleanup(srv.Close)

	return srv, requests
}

func TestClient_CreateSong(t *testing.T) {
	srv, requests := newCatalogServer(t, http.StatusCreated, `{"id":42}`)
	c := New(srv.URL + "/")

	err := c.CreateSong(context.Background(), json.RawMessage(`{"id":42,"name":"Song"}`))
	require.NoError(t, err)

	rec := <-requests
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/songs", rec.path)
	assert.Equal(t, "application/json", rec.contentType)
	assert.JSONEq(t, `{"id":42,"name":"Song"}`, rec.body)
}

func TestClient_CreateSongsBulk(t *testing.T) {
	srv, requests := newCatalogServer(t, http.StatusOK, "")
	c := New(srv.URL)

	err := c.CreateSongsBulk(context.Background(), []json.RawMessage{
		json.RawMessage(`{"id":1}`),
		json.RawMessage(`{"id":2}`),
	})
	require.NoError(t, err)

	rec := <-requests
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/songs/bulk", rec.path)
	assert.JSONEq(t, `{"songs":[{"id":1},{"id":2}]}`, rec.body)
}

func TestClient_DeleteSongs(t *testing.T) {
	srv, requests := newCatalogServer(t, http.StatusOK, `{"ids":[1,2,3]}`)
	c := New(srv.URL)

	err := c.DeleteSongs(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)

	rec := <-requests
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/songs", rec.path)
	assert.Equal(t, "1,2,3", rec.query)
	assert.Empty(t, rec.body)
}

func TestClient_DeleteSongsBulk(t *testing.T) {
	srv, requests := newCatalogServer(t, http.StatusNoContent, "")
	c := New(srv.URL)

	err := c.DeleteSongsBulk(context.Background(), []int64{5, 6})
	require.NoError(t, err)

	rec := <-requests
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/songs/delete-bulk", rec.path)
	assert.JSONEq(t, `{"ids":[5,6]}`, rec.body)
}

func TestClient_HTTPStatusError(t *testing.T) {
	srv, _ := newCatalogServer(t, http.StatusConflict, "  already exists \n")
	c := New(srv.URL)

	err := c.CreateSong(context.Background(), json.RawMessage(`{"id":1}`))
	require.Error(t, err)

	de, ok := entity.AsDeliveryError(err)
	require.True(t, ok)
	assert.Equal(t, entity.DeliveryHTTPStatus, de.Kind)
	assert.Equal(t, http.StatusConflict, de.StatusCode)
	assert.Equal(t, "already exists", de.Body)
}

func TestClient_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, ConnectTimeout(200*time.Millisecond), ReadTimeout(200*time.Millisecond))

	err := c.DeleteSongs(context.Background(), []int64{1})
	require.Error(t, err)

	de, ok := entity.AsDeliveryError(err)
	require.True(t, ok)
	assert.Equal(t, entity.DeliveryConnection, de.Kind)
	assert.NotEmpty(t, de.Message)
}

func TestClient_ReadTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := New(srv.URL, ReadTimeout(50*time.Millisecond))

	err := c.CreateSong(context.Background(), json.RawMessage(`{"id":1}`))

	de, ok := entity.AsDeliveryError(err)
	require.True(t, ok)
	assert.Equal(t, entity.DeliveryConnection, de.Kind)
}

func TestClient_CustomTransport(t *testing.T) {
	var called bool
	c := New("http://catalog.invalid", Transport(roundTripFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		assert.Equal(t, "/songs/bulk", r.URL.Path)

		return &http.Response{
			StatusCode: http.StatusBadRequest,
			Body:       http.NoBody,
			Header:     http.Header{},
			Request:    r,
		}, nil
	})))

	err := c.CreateSongsBulk(context.Background(), nil)

	assert.True(t, called)
	de, ok := entity.AsDeliveryError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, de.StatusCode)
	assert.Empty(t, de.Body)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
