package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "id", user)
		assert.Equal(t, "secret", pass)
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: "app-token", TokenType: "Bearer", ExpiresIn: 3600})
	})
	mux.Handle("/", handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewClient("id", "secret")
	c.baseURL = srv.URL
	c.authURL = srv.URL + "/token"
	return c, srv
}

func TestFetchPlaylist_Pagination(t *testing.T) {
	t.Parallel()

	var srv *httptest.Server
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer app-token", r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/playlists/pl-1":
			fmt.Fprintf(w, `{
				"id": "pl-1", "name": "Road Trip",
				"owner": {"display_name": "dj"},
				"tracks": {
					"items": [
						{"track": {"id": "t1", "name": "One", "artists": [{"name": "A"}, {"name": "B"}],
							"album": {"name": "Alb", "release_date": "1994-06-01"}, "duration_ms": 200000, "uri": "spotify:track:t1"}}
					],
					"next": "%s/playlists/pl-1/tracks?offset=1"
				}
			}`, srv.URL)
		case "/playlists/pl-1/tracks":
			fmt.Fprint(w, `{
				"items": [
					{"track": {"id": "t2", "name": "Two", "artists": [{"name": "C"}],
						"album": {"name": "Alb2", "release_date": "2003"}}},
					{"track": {"id": "t3", "name": "Undated", "artists": [{"name": "D"}],
						"album": {"name": "Alb3", "release_date": ""}}},
					{"track": {"id": "t4", "name": "Local", "is_local": true,
						"album": {"release_date": "1999"}}}
				],
				"next": ""
			}`)
		default:
			http.NotFound(w, r)
		}
	}))

	playlist, err := c.FetchPlaylist(context.Background(), "pl-1")
	require.NoError(t, err)

	assert.Equal(t, "Road Trip", playlist.Name)
	assert.Equal(t, "dj", playlist.Owner)
	// t3 has no parseable year and t4 is local; both are dropped.
	require.Len(t, playlist.Tracks, 2)

	first := playlist.Tracks[0]
	assert.Equal(t, "One", first.Title)
	assert.Equal(t, "A, B", first.Artist)
	assert.Equal(t, 1994, first.Year)
	assert.Equal(t, "1990s", first.Decade)

	assert.Equal(t, 2003, playlist.Tracks[1].Year)
	assert.Equal(t, "2000s", playlist.Tracks[1].Decade)
}

func TestSearch(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "bohemian rhapsody", r.URL.Query().Get("q"))
		assert.Equal(t, "track", r.URL.Query().Get("type"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"tracks": {"items": [
			{"id": "t1", "name": "Bohemian Rhapsody", "artists": [{"name": "Queen"}],
				"album": {"release_date": "1975-10-31"}}
		]}}`)
	}))

	tracks, err := c.Search(context.Background(), "bohemian rhapsody", 5)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Queen", tracks[0].Artist)
	assert.Equal(t, 1975, tracks[0].Year)
}

func TestDoRequest_RetriesRateLimit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"ok": true}`)
	}))

	body, err := c.doRequest(context.Background(), "/anything")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok": true}`, string(body))
	assert.Equal(t, int32(2), calls.Load())
}

func TestDoRequest_ClientError(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": {"status": 404}}`)
	}))

	_, err := c.doRequest(context.Background(), "/playlists/missing")
	assert.ErrorContains(t, err, "spotify API error 404")
}

func TestParseYear(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		year int
		ok   bool
	}{
		{"1994-06-01", 1994, true},
		{"2003-01", 2003, true},
		{"2020", 2020, true},
		{"", 0, false},
		{"19", 0, false},
		{"abcd-01-01", 0, false},
		{"0000", 0, false},
	}
	for _, tt := range tests {
		year, ok := parseYear(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.year, year, tt.in)
	}
}

func TestDecadeOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1990s", decadeOf(1994))
	assert.Equal(t, "2000s", decadeOf(2000))
	assert.Equal(t, "unknown", decadeOf(0))
}
