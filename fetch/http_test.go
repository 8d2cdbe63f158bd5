package fetch_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/asset-cache/fetch"
	"github.com/krisalay/asset-cache/types"
)

func TestEncode(t *testing.T) {
	got, err := fetch.Encode(strings.NewReader("ABC"))
	require.NoError(t, err)
	assert.Equal(t, "QUJD", got)

	got, err = fetch.Encode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestHTTPLoaderSuccess(t *testing.T) {
	body := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	payload, err := fetch.NewHTTPLoader().Load(context.Background(), types.Asset{Key: srv.URL + "/a.png"})
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(body), payload.EncodedData)
	assert.Equal(t, "image/png", payload.ContentType)
}

func TestHTTPLoaderContentTypeFallbacks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// An explicit empty header stops net/http from sniffing one.
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte("X"))
	}))
	defer srv.Close()

	loader := fetch.NewHTTPLoader()

	payload, err := loader.Load(context.Background(), types.Asset{Key: srv.URL, ContentType: "image/webp"})
	require.NoError(t, err)
	assert.Equal(t, "image/webp", payload.ContentType)

	payload, err = loader.Load(context.Background(), types.Asset{Key: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, types.DefaultContentType, payload.ContentType)

	payload, err = fetch.NewHTTPLoader(fetch.WithDefaultContentType("application/octet-stream")).
		Load(context.Background(), types.Asset{Key: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", payload.ContentType)
}

func TestHTTPLoaderNonSuccessStatus(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", status)
		}))

		_, err := fetch.NewHTTPLoader().Load(context.Background(), types.Asset{Key: srv.URL})
		srv.Close()

		require.Error(t, err)
		assert.True(t, types.IsFetchFailed(err), "status %d: %v", status, err)
	}
}

func TestHTTPLoaderTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := fetch.NewHTTPLoader().Load(context.Background(), types.Asset{Key: url})
	require.Error(t, err)
	assert.True(t, types.IsFetchFailed(err))
}

func TestHTTPLoaderTruncatedBodyIsDecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write([]byte("short"))
	}))
	defer srv.Close()

	_, err := fetch.NewHTTPLoader().Load(context.Background(), types.Asset{Key: srv.URL})
	require.Error(t, err)
	assert.True(t, types.IsDecodeFailed(err), "got %v", err)
}

func TestHTTPLoaderMaxBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	_, err := fetch.NewHTTPLoader(fetch.WithMaxBytes(16)).Load(context.Background(), types.Asset{Key: srv.URL})
	require.Error(t, err)
	assert.True(t, types.IsFetchFailed(err))

	_, err = fetch.NewHTTPLoader(fetch.WithMaxBytes(64)).Load(context.Background(), types.Asset{Key: srv.URL})
	assert.NoError(t, err)
}

func TestHTTPLoaderHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("X"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetch.NewHTTPLoader().Load(ctx, types.Asset{Key: srv.URL})
	require.Error(t, err)
	assert.True(t, types.IsFetchFailed(err))
}
