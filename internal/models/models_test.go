package models

import (
	"testing"
	"time"
)

func TestSession(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Expired", func(t *testing.T) {
		tc := []struct {
			name    string
			session *Session
			want    bool
		}{
			{name: "nil", session: nil, want: true},
			{name: "no expiry", session: &Session{UserID: "u"}, want: false},
			{name: "future", session: &Session{ExpiresAt: now.Add(time.Hour)}, want: false},
			{name: "within skew", session: &Session{ExpiresAt: now.Add(5 * time.Second)}, want: true},
			{name: "past", session: &Session{ExpiresAt: now.Add(-time.Minute)}, want: true},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if got := tt.session.Expired(now); got != tt.want {
					t.Errorf("Expired() = %v, want %v", got, tt.want)
				}
			})
		}
	})

	t.Run("Validate", func(t *testing.T) {
		if err := (&Session{UserID: "u", AccessToken: "t"}).Validate(); err != nil {
			t.Errorf("expected valid session, got %v", err)
		}
		if err := (&Session{UserID: "u"}).Validate(); err == nil {
			t.Error("expected error for missing access token")
		}
	})
}

func TestParseInteractionKind(t *testing.T) {
	for _, in := range []string{"viewed", "Liked", " watchlist "} {
		if _, err := ParseInteractionKind(in); err != nil {
			t.Errorf("ParseInteractionKind(%q): unexpected error %v", in, err)
		}
	}
	if _, err := ParseInteractionKind("shared"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestPosterURL(t *testing.T) {
	if got := (MovieSummary{Poster: "N/A"}).PosterURL(); got != PosterPlaceholder {
		t.Errorf("expected placeholder, got %s", got)
	}
	if got := (MovieSummary{Poster: "https://img/x.jpg"}).PosterURL(); got != "https://img/x.jpg" {
		t.Errorf("expected poster URL, got %s", got)
	}
}

func TestFeedbackValidate(t *testing.T) {
	ok := Feedback{Name: "Ann", Email: "ann@example.com", Message: "Nice", Rating: 5}
	if err := ok.Validate(); err != nil {
		t.Errorf("expected valid feedback, got %v", err)
	}

	missing := ok
	missing.Message = " "
	if err := missing.Validate(); err == nil {
		t.Error("expected error for blank message")
	}

	rating := ok
	rating.Rating = 9
	if err := rating.Validate(); err == nil {
		t.Error("expected error for out-of-range rating")
	}
}

func TestLinks(t *testing.T) {
	t.Run("Backend Links Win", func(t *testing.T) {
		d := MovieDetail{StreamingLinks: []StreamingLink{{Name: "Hulu", URL: "https://hulu.com"}}}
		if links := d.Links(); len(links) != 1 || links[0].Name != "Hulu" {
			t.Errorf("expected backend links, got %+v", links)
		}
	})

	t.Run("Search Fallback", func(t *testing.T) {
		d := MovieDetail{MovieSummary: MovieSummary{Title: "The Matrix", IMDbID: "tt0133093"}}
		links := d.Links()
		if len(links) != 3 {
			t.Fatalf("expected 3 links, got %d", len(links))
		}
		if links[0].URL != "https://www.netflix.com/search?q=The+Matrix" {
			t.Errorf("unexpected netflix url %s", links[0].URL)
		}
		if links[2].URL != "https://www.imdb.com/title/tt0133093/" {
			t.Errorf("unexpected imdb url %s", links[2].URL)
		}
	})

	t.Run("IMDb Find Without ID", func(t *testing.T) {
		links := SearchLinks("Up", "")
		if links[2].URL != "https://www.imdb.com/find?q=Up" {
			t.Errorf("unexpected imdb url %s", links[2].URL)
		}
	})
}
