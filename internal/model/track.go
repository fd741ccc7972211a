package model

// Track is read-only catalog metadata supplied by the track provider.
type Track struct {
	ID          string `json:"trackId"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	ReleaseDate string `json:"releaseDate"`
	Year        int    `json:"year"`
	Decade      string `json:"decade"`
	DurationMS  int    `json:"durationMs"`
	PreviewURL  string `json:"previewUrl,omitempty"`
	URI         string `json:"uri"`
}

// Playlist is the provider's view of a playlist and its tracks.
type Playlist struct {
	ID     string  `json:"playlistId"`
	Name   string  `json:"name"`
	Owner  string  `json:"owner"`
	Tracks []Track `json:"tracks"`
}

// TrackPlayback is the playable view of the active track. It must never
// carry the solution fields (title, artist, year, decade).
type TrackPlayback struct {
	TrackID     string `json:"trackId"`
	URI         string `json:"uri"`
	DurationMS  int    `json:"durationMs"`
	TrackNumber int    `json:"trackNumber"`
	TotalTracks int    `json:"totalTracks"`
}
