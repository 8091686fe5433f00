package disk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL, oauthURL string) *Client {
	return NewClient(Config{
		Token:     "test-token",
		AppID:     "app-id",
		AppSecret: "app-secret",
		BaseURL:   baseURL,
		OAuthURL:  oauthURL,
		Timeout:   time.Second,
	}, nil)
}

func TestCheckCredential(t *testing.T) {
	t.Parallel()

	t.Run("accepted token", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/disk", r.URL.Path)
			assert.Equal(t, "OAuth test-token", r.Header.Get("Authorization"))
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		c := newTestClient(srv.URL, "")
		assert.True(t, c.CheckCredential(context.Background()))
	})

	t.Run("rejected token", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		c := newTestClient(srv.URL, "")
		assert.False(t, c.CheckCredential(context.Background()))
	})
}

func TestDownload(t *testing.T) {
	t.Parallel()

	const payload = "workbook-bytes"

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/v1/disk/resources/download", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bdays.xlsx", r.URL.Query().Get("path"))
		json.NewEncoder(w).Encode(map[string]string{"href": srv.URL + "/content"})
	})
	mux.HandleFunc("/content", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(payload))
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	local := filepath.Join(t.TempDir(), "local.xlsx")
	c := newTestClient(srv.URL, "")
	require.NoError(t, c.Download(context.Background(), "bdays.xlsx", local))

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))
}

func TestDownloadRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	err := c.Download(context.Background(), "missing.xlsx", filepath.Join(t.TempDir(), "x"))
	require.Error(t, err)
}

func TestUpload(t *testing.T) {
	t.Parallel()

	var uploaded []byte
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/v1/disk/resources/upload", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bdays.xlsx", r.URL.Query().Get("path"))
		assert.Equal(t, "true", r.URL.Query().Get("overwrite"))
		json.NewEncoder(w).Encode(map[string]string{"href": srv.URL + "/upload-target"})
	})
	mux.HandleFunc("/upload-target", func(w http.ResponseWriter, r *http.Request) {
		var err error
		uploaded, err = io.ReadAll(r.Body)
		assert.NoError(t, err)
		w.WriteHeader(http.StatusCreated)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	local := filepath.Join(t.TempDir(), "local.xlsx")
	require.NoError(t, os.WriteFile(local, []byte("new-bytes"), 0o644))

	c := newTestClient(srv.URL, "")
	require.NoError(t, c.Upload(context.Background(), local, "bdays.xlsx", true))
	assert.Equal(t, "new-bytes", string(uploaded))
}

func TestExchangeCode(t *testing.T) {
	t.Parallel()

	t.Run("valid code yields token", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "/token", r.URL.Path)
			assert.Equal(t, "authorization_code", r.FormValue("grant_type"))
			assert.Equal(t, "secret-code", r.FormValue("code"))
			assert.Equal(t, "app-id", r.FormValue("client_id"))
			json.NewEncoder(w).Encode(map[string]string{"access_token": "fresh-token"})
		}))
		defer srv.Close()

		c := newTestClient("", srv.URL)
		token, err := c.ExchangeCode(context.Background(), "secret-code")
		require.NoError(t, err)
		assert.Equal(t, "fresh-token", token)
	})

	t.Run("invalid code is an error", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		c := newTestClient("", srv.URL)
		_, err := c.ExchangeCode(context.Background(), "bad-code")
		require.Error(t, err)
	})

	t.Run("empty token in response is an error", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{}`)
		}))
		defer srv.Close()

		c := newTestClient("", srv.URL)
		_, err := c.ExchangeCode(context.Background(), "code")
		require.Error(t, err)
	})
}

func TestSetToken(t *testing.T) {
	t.Parallel()

	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	c.SetToken("renewed")
	c.CheckCredential(context.Background())
	assert.Equal(t, "OAuth renewed", seen)
}

func TestCodeURL(t *testing.T) {
	t.Parallel()

	c := newTestClient("", "https://oauth.example")
	assert.Equal(t, "https://oauth.example/authorize?response_type=code&client_id=app-id", c.CodeURL())
}
