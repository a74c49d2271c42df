// package models defines the data model shared by the discovery controllers, services and hosts
package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const PosterPlaceholder = "https://via.placeholder.com/300x450?text=No+Image"

// MovieSummary is the minimal identity used by list views.
type MovieSummary struct {
	IMDbID string `json:"imdb_id"`
	Title  string `json:"title"`
	Year   string `json:"year"`
	Poster string `json:"poster,omitempty"`
}

// PosterURL returns the poster or a placeholder when the metadata API reports none ("N/A").
func (m MovieSummary) PosterURL() string {
	if m.Poster == "" || m.Poster == "N/A" {
		return PosterPlaceholder
	}
	return m.Poster
}

// MovieDetail is a [MovieSummary] plus the full metadata fetched on demand.
type MovieDetail struct {
	MovieSummary
	Genre          string          `json:"genre"`
	Director       string          `json:"director"`
	Actors         string          `json:"actors"`
	Runtime        string          `json:"runtime"`
	Language       string          `json:"language"`
	Plot           string          `json:"plot"`
	Rating         string          `json:"rating"`
	Metascore      string          `json:"metascore"`
	StreamingLinks []StreamingLink `json:"streaming_links,omitempty"`
}

// StreamingLink points at a provider page for a movie.
type StreamingLink struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Color string `json:"color"`
}

// SearchLinks builds provider search links for a title, used when a detail payload carries none.
func SearchLinks(title, imdbID string) []StreamingLink {
	links := []StreamingLink{
		{Name: "Netflix", URL: "https://www.netflix.com/search?q=" + url.QueryEscape(title), Color: "#E50914"},
		{Name: "Amazon Prime", URL: "https://www.amazon.com/s?k=" + url.QueryEscape(title+" movie"), Color: "#00A8E1"},
	}
	if imdbID != "" {
		links = append(links, StreamingLink{Name: "IMDb", URL: "https://www.imdb.com/title/" + url.PathEscape(imdbID) + "/", Color: "#F5C518"})
	} else {
		links = append(links, StreamingLink{Name: "IMDb", URL: "https://www.imdb.com/find?q=" + url.QueryEscape(title), Color: "#F5C518"})
	}
	return links
}

// Links returns the detail's streaming links, or [SearchLinks] when it has none.
func (d MovieDetail) Links() []StreamingLink {
	if len(d.StreamingLinks) > 0 {
		return d.StreamingLinks
	}
	return SearchLinks(d.Title, d.IMDbID)
}

// Session is the signed-in user as issued by the auth provider.
//
// Sessions are replaced wholesale; nothing mutates one in place after it is built.
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the access token is past its expiry (with a small skew).
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(10 * time.Second).Before(s.ExpiresAt)
}

// Validate checks the fields a usable session must carry.
func (s *Session) Validate() error {
	if s == nil {
		return fmt.Errorf("session is nil")
	}
	if s.UserID == "" {
		return fmt.Errorf("session user id is required")
	}
	if s.AccessToken == "" {
		return fmt.Errorf("session access token is required")
	}
	return nil
}

// Profile is the metadata attached to a new account at sign-up.
type Profile struct {
	FullName string `json:"full_name,omitempty"`
	Username string `json:"username,omitempty"`
}

// InteractionKind enumerates tracked interactions.
type InteractionKind string

const (
	Viewed    InteractionKind = "viewed"
	Liked     InteractionKind = "liked"
	Watchlist InteractionKind = "watchlist"
)

// ParseInteractionKind maps user input to an [InteractionKind].
func ParseInteractionKind(s string) (InteractionKind, error) {
	switch k := InteractionKind(strings.ToLower(strings.TrimSpace(s))); k {
	case Viewed, Liked, Watchlist:
		return k, nil
	default:
		return "", fmt.Errorf("unknown interaction kind %q (want viewed, liked or watchlist)", s)
	}
}

// Interaction is an outbound interaction record. It is sent and forgotten.
type Interaction struct {
	MovieTitle  string          `json:"movie_title"`
	IMDbID      string          `json:"imdb_id"`
	Kind        InteractionKind `json:"interaction_type"`
	MoodContext string          `json:"mood_context,omitempty"`
}

// HistoryEntry is one past interaction as reported by the personalization route.
type HistoryEntry struct {
	MovieTitle      string `json:"movie_title"`
	IMDbID          string `json:"imdb_id"`
	InteractionType string `json:"interaction_type"`
	MoodContext     string `json:"mood_context"`
	CreatedAt       string `json:"created_at"`
}

// PersonalRecommendations is the personalization payload.
type PersonalRecommendations struct {
	LikedCount      int            `json:"liked_count"`
	UserHistory     []HistoryEntry `json:"user_history"`
	Recommendations []string       `json:"recommendations"`
}

// Feedback is a user feedback submission.
type Feedback struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Rating  int    `json:"rating"`
}

// Validate mirrors the backend's required-field check so bad input fails before a request.
func (f Feedback) Validate() error {
	if strings.TrimSpace(f.Name) == "" || strings.TrimSpace(f.Email) == "" || strings.TrimSpace(f.Message) == "" {
		return fmt.Errorf("all fields are required")
	}
	if f.Rating < 1 || f.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5, got %d", f.Rating)
	}
	return nil
}
