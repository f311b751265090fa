package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/panoclone/internal/client/tokens"
	"github.com/dmitrijs2005/panoclone/internal/logging"
	"github.com/dmitrijs2005/panoclone/internal/shared"
)

type countingProvider struct {
	calls int32
}

func (p *countingProvider) AccessToken(ctx context.Context) (string, error) {
	n := atomic.AddInt32(&p.calls, 1)
	if n == 1 {
		return "stale-token", nil
	}
	return "fresh-token", nil
}

func testLogger(t *testing.T) logging.Logger {
	t.Helper()
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(testWriter{t}, nil)))
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

// newTestClient points a Client at an httptest server.
func newTestClient(t *testing.T, ts *httptest.Server, provider tokens.Provider) *Client {
	t.Helper()
	c := New("example.org", false, tokens.NewCell(provider), testLogger(t))
	c.baseURL = ts.URL
	c.http = ts.Client()
	return c
}

func TestDo_RefreshesTokenOn403(t *testing.T) {
	provider := &countingProvider{}

	var requests int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		if r.Header.Get("Authorization") == "Bearer fresh-token" {
			_ = json.NewEncoder(w).Encode(Folder{ID: "f1", Name: "A"})
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	c := newTestClient(t, ts, provider)

	folder, err := c.CreateFolder(context.Background(), "A", "", "root123")
	require.NoError(t, err)
	require.Equal(t, "f1", folder.ID)

	// one initial token + exactly one refresh, two HTTP calls
	require.Equal(t, int32(2), atomic.LoadInt32(&provider.calls))
	require.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestDo_CapsConsecutiveRefreshes(t *testing.T) {
	provider := &countingProvider{}

	var requests int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := newTestClient(t, ts, provider)

	_, err := c.CreateFolder(context.Background(), "A", "", "root123")
	require.ErrorIs(t, err, shared.ErrorAuthRefreshExhausted)

	// initial attempt + maxAuthRefreshes retries
	require.Equal(t, int32(maxAuthRefreshes+1), atomic.LoadInt32(&requests))
}

func TestDo_BadRequestIsNotRetried(t *testing.T) {
	var requests int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		http.Error(w, "malformed folder name", http.StatusBadRequest)
	}))
	defer ts.Close()

	c := newTestClient(t, ts, tokens.StaticProvider("tok"))

	_, err := c.CreateFolder(context.Background(), "A", "", "root123")
	require.ErrorIs(t, err, shared.ErrorClientRequest)
	require.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestDo_UnexpectedStatusSurfacesBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "spilled coffee", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := newTestClient(t, ts, tokens.StaticProvider("tok"))

	_, err := c.CreateFolder(context.Background(), "A", "", "root123")
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
	require.Contains(t, err.Error(), "spilled coffee")
}

func TestGetFolder_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := newTestClient(t, ts, tokens.StaticProvider("tok"))

	_, err := c.GetFolder(context.Background(), "nope")
	require.ErrorIs(t, err, shared.ErrorFolderNotFound)
}

func TestGetFolder(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/folders/f1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(Folder{ID: "f1", Name: "Lectures"})
	}))
	defer ts.Close()

	c := newTestClient(t, ts, tokens.StaticProvider("tok"))

	folder, err := c.GetFolder(context.Background(), "f1")
	require.NoError(t, err)
	require.Equal(t, "Lectures", folder.Name)
}

func TestGetChildFolders_QueryParameters(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/folders/f1/children", r.URL.Path)
		require.Equal(t, "Name", r.URL.Query().Get("sortField"))
		require.Equal(t, "Desc", r.URL.Query().Get("sortOrder"))
		require.Equal(t, "2", r.URL.Query().Get("pageNumber"))
		_ = json.NewEncoder(w).Encode([]Folder{{ID: "c1", Name: "child"}})
	}))
	defer ts.Close()

	c := newTestClient(t, ts, tokens.StaticProvider("tok"))

	folders, err := c.GetChildFolders(context.Background(), "f1", 2, "Name", "Desc")
	require.NoError(t, err)
	require.Len(t, folders, 1)
	require.Equal(t, "c1", folders[0].ID)
}
