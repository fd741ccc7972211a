// Package spotify implements the track provider against the Spotify Web API.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"beatline/internal/model"
)

// Client wraps Spotify Web API calls using the client-credentials flow.
type Client struct {
	baseURL      string
	authURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	maxRetries   int

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// NewClient creates a new Spotify API client
func NewClient(clientID, clientSecret string) *Client {
	if clientID == "" || clientSecret == "" {
		log.Println("Warning: Spotify credentials not set")
	}

	return &Client{
		baseURL:      "https://api.spotify.com/v1",
		authURL:      "https://accounts.spotify.com/api/token",
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 5,
	}
}

// IsConfigured returns true if credentials are set
func (c *Client) IsConfigured() bool {
	return c.clientID != "" && c.clientSecret != ""
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// token returns a cached app token, refreshing it when it is within 30s of
// expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.expiresAt.Add(-30*time.Second)) {
		return c.accessToken, nil
	}

	log.Printf("[Spotify] Requesting new access token")

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, "POST", c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode >= 400 {
		log.Printf("[Spotify] ERROR: token endpoint returned %d: %s", resp.StatusCode, string(body))
		return "", fmt.Errorf("spotify auth error %d: %s", resp.StatusCode, string(body))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}

	c.accessToken = tok.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	log.Printf("[Spotify] Access token refreshed, expires in %ds", tok.ExpiresIn)
	return c.accessToken, nil
}

// doRequest performs an authenticated GET with retry logic. path may be a
// full URL (pagination links come back absolute).
func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	u := path
	if !strings.HasPrefix(path, "http") {
		u = c.baseURL + path
	}
	log.Printf("[Spotify] GET %s", path)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("[Spotify] Retry attempt %d/%d for GET %s", attempt, c.maxRetries, path)
		}

		token, err := c.token(ctx)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Printf("[Spotify] ERROR: HTTP request failed (attempt %d): %v", attempt+1, err)
			lastErr = err
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			log.Printf("[Spotify] ERROR: Failed to read response body: %v", err)
			lastErr = err
			continue
		}

		// Rate limiting (429)
		if resp.StatusCode == 429 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					backoff = time.Duration(secs) * time.Second
				}
			}
			log.Printf("[Spotify] RATE LIMITED: Retry %d/%d in %v", attempt+1, c.maxRetries, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("rate limited")
			continue
		}

		// Expired token: drop the cache and retry once with a fresh one.
		if resp.StatusCode == 401 {
			log.Printf("[Spotify] Access token rejected, refreshing")
			c.mu.Lock()
			c.accessToken = ""
			c.mu.Unlock()
			lastErr = fmt.Errorf("unauthorized")
			continue
		}

		if resp.StatusCode >= 400 {
			log.Printf("[Spotify] ERROR: API returned %d: %s", resp.StatusCode, string(respBody))
			return nil, fmt.Errorf("spotify API error %d: %s", resp.StatusCode, string(respBody))
		}

		return respBody, nil
	}

	log.Printf("[Spotify] ERROR: Max retries (%d) exceeded for GET %s: %v", c.maxRetries, path, lastErr)
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

type spArtist struct {
	Name string `json:"name"`
}

type spAlbum struct {
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

type spTrack struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Artists    []spArtist `json:"artists"`
	Album      spAlbum    `json:"album"`
	DurationMS int        `json:"duration_ms"`
	PreviewURL string     `json:"preview_url"`
	URI        string     `json:"uri"`
	IsLocal    bool       `json:"is_local"`
}

type spPlaylistItem struct {
	Track *spTrack `json:"track"`
}

type spTracksPage struct {
	Items []spPlaylistItem `json:"items"`
	Next  string           `json:"next"`
	Total int              `json:"total"`
}

type spPlaylist struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner struct {
		DisplayName string `json:"display_name"`
	} `json:"owner"`
	Tracks spTracksPage `json:"tracks"`
}

type spSearchResponse struct {
	Tracks struct {
		Items []spTrack `json:"items"`
	} `json:"tracks"`
}

// FetchPlaylist loads a playlist and all of its tracks, following pagination.
// Tracks without a parseable release year are dropped.
func (c *Client) FetchPlaylist(ctx context.Context, playlistID string) (*model.Playlist, error) {
	respBody, err := c.doRequest(ctx, "/playlists/"+playlistID)
	if err != nil {
		return nil, err
	}

	var pl spPlaylist
	if err := json.Unmarshal(respBody, &pl); err != nil {
		return nil, fmt.Errorf("failed to parse playlist response: %w", err)
	}

	playlist := &model.Playlist{
		ID:    pl.ID,
		Name:  pl.Name,
		Owner: pl.Owner.DisplayName,
	}

	page := pl.Tracks
	for {
		for _, item := range page.Items {
			track, ok := parseTrack(item.Track)
			if !ok {
				continue
			}
			playlist.Tracks = append(playlist.Tracks, track)
		}
		if page.Next == "" {
			break
		}
		respBody, err := c.doRequest(ctx, page.Next)
		if err != nil {
			return nil, err
		}
		page = spTracksPage{}
		if err := json.Unmarshal(respBody, &page); err != nil {
			return nil, fmt.Errorf("failed to parse tracks page: %w", err)
		}
	}

	log.Printf("[Spotify] Playlist %s loaded: %d playable tracks", playlistID, len(playlist.Tracks))
	return playlist, nil
}

// Search finds tracks matching the query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]model.Track, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	path := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)

	respBody, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	var result spSearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	tracks := make([]model.Track, 0, len(result.Tracks.Items))
	for i := range result.Tracks.Items {
		track, ok := parseTrack(&result.Tracks.Items[i])
		if !ok {
			continue
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// parseTrack converts an API track. Returns false for local tracks and
// tracks whose release year cannot be parsed.
func parseTrack(t *spTrack) (model.Track, bool) {
	if t == nil || t.IsLocal || t.ID == "" {
		return model.Track{}, false
	}

	year, ok := parseYear(t.Album.ReleaseDate)
	if !ok {
		return model.Track{}, false
	}

	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}

	return model.Track{
		ID:          t.ID,
		Title:       t.Name,
		Artist:      strings.Join(names, ", "),
		Album:       t.Album.Name,
		ReleaseDate: t.Album.ReleaseDate,
		Year:        year,
		Decade:      decadeOf(year),
		DurationMS:  t.DurationMS,
		PreviewURL:  t.PreviewURL,
		URI:         t.URI,
	}, true
}

// parseYear reads the year from a release date, which Spotify reports as
// "2006", "2006-01" or "2006-01-13" depending on precision.
func parseYear(releaseDate string) (int, bool) {
	if len(releaseDate) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}

func decadeOf(year int) string {
	if year <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%ds", (year/10)*10)
}
