package clock

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTodayFromAPI(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"datetime": "2022-12-15T00:03:42.431581+03:00"}`))
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, time.Second, nil)
	got := r.Today(context.Background())
	assert.Equal(t, time.Date(2022, time.December, 15, 0, 0, 0, 0, time.UTC), got)
}

func TestTodayFallsBackToSystemDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
		},
		{
			name: "broken payload",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`not json`))
			},
		},
		{
			name: "truncated datetime",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"datetime": "2022"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			r := NewResolver(srv.URL, time.Second, nil)
			got := r.Today(context.Background())

			now := time.Now()
			want := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
			assert.Equal(t, want, got)
		})
	}
}

func TestTodayUnreachableAPI(t *testing.T) {
	t.Parallel()

	// A closed server makes the request fail at the transport level.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	r := NewResolver(srv.URL, time.Second, nil)
	got := r.Today(context.Background())

	now := time.Now()
	want := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	assert.Equal(t, want, got)
}
