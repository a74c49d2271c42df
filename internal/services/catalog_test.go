package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/services"
	"github.com/desertthunder/flickx/internal/shared"
)

func newCatalog(t *testing.T, h http.HandlerFunc) *services.CatalogService {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return services.NewCatalogService(services.NewAPIService(server.URL, nil), shared.RoutesConfig{})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestCatalogService(t *testing.T) {
	ctx := context.Background()

	t.Run("Search", func(t *testing.T) {
		t.Run("Maps Hits", func(t *testing.T) {
			c := newCatalog(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/search/" || r.URL.Query().Get("s") != "comedy movies" {
					t.Errorf("unexpected request %s", r.URL)
				}
				writeJSON(w, 200, map[string]any{
					"Response": "True",
					"Search": []map[string]string{
						{"Title": "Airplane!", "Year": "1980", "imdbID": "tt0080339", "Poster": "N/A"},
						{"Title": "Groundhog Day", "Year": "1993", "imdbID": "tt0107048", "Poster": "https://img/g.jpg"},
					},
				})
			})

			movies, err := c.Search(ctx, "comedy movies")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(movies) != 2 {
				t.Fatalf("expected 2 movies, got %d", len(movies))
			}
			if movies[0].IMDbID != "tt0080339" || movies[0].PosterURL() != models.PosterPlaceholder {
				t.Errorf("unexpected first movie %+v", movies[0])
			}
		})

		t.Run("False Response Is Empty", func(t *testing.T) {
			c := newCatalog(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 200, map[string]string{"Response": "False", "Error": "Movie not found!"})
			})

			movies, err := c.Search(ctx, "zzzz")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(movies) != 0 {
				t.Errorf("expected no movies, got %d", len(movies))
			}
		})

		t.Run("Server Error Is Rejected", func(t *testing.T) {
			c := newCatalog(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 500, map[string]string{"error": "upstream down"})
			})

			_, err := c.Search(ctx, "x")
			if !errors.Is(err, shared.ErrRequestRejected) {
				t.Errorf("expected ErrRequestRejected, got %v", err)
			}
		})
	})

	t.Run("LookupTitle", func(t *testing.T) {
		c := newCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("plot") != "full" {
				t.Errorf("expected plot=full, got %q", q.Get("plot"))
			}
			if q.Get("t") == "Inception" {
				writeJSON(w, 200, map[string]string{"Response": "True", "Title": "Inception", "imdbID": "tt1375666", "imdbRating": "8.8", "Genre": "Sci-Fi"})
				return
			}
			writeJSON(w, 200, map[string]string{"Response": "False", "Error": "Movie not found!"})
		})

		d, err := c.LookupTitle(ctx, "Inception")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if d.Rating != "8.8" || d.Genre != "Sci-Fi" || d.IMDbID != "tt1375666" {
			t.Errorf("unexpected detail %+v", d)
		}

		if _, err := c.LookupTitle(ctx, "Nope"); !errors.Is(err, shared.ErrMovieNotFound) {
			t.Errorf("expected ErrMovieNotFound, got %v", err)
		}
	})

	t.Run("Detail", func(t *testing.T) {
		c := newCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/movie-details/tt0133093/":
				writeJSON(w, 200, map[string]any{
					"Response": "True", "Title": "The Matrix", "imdbID": "tt0133093",
					"streaming_links": []map[string]string{{"name": "Netflix", "url": "https://netflix.com/x", "color": "#e50914"}},
				})
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		})

		d, err := c.Detail(ctx, "tt0133093")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(d.StreamingLinks) != 1 || d.StreamingLinks[0].Name != "Netflix" {
			t.Errorf("unexpected streaming links %+v", d.StreamingLinks)
		}

		if _, err := c.Detail(ctx, "tt0000000"); !errors.Is(err, shared.ErrMovieNotFound) {
			t.Errorf("expected ErrMovieNotFound, got %v", err)
		}
	})

	t.Run("Fragments", func(t *testing.T) {
		c := newCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/trending-movies/":
				w.Write([]byte(`<div class="movie-card" data-imdbid="tt1">T</div>`))
			case "/recent-movies/":
				w.WriteHeader(http.StatusServiceUnavailable)
			}
		})

		html, err := c.Trending(ctx)
		if err != nil || html == "" {
			t.Fatalf("expected fragment, got %q, %v", html, err)
		}
		if _, err := c.Recent(ctx); !errors.Is(err, shared.ErrRequestRejected) {
			t.Errorf("expected ErrRequestRejected, got %v", err)
		}
	})

	t.Run("Mood", func(t *testing.T) {
		t.Run("HTML Fragment", func(t *testing.T) {
			c := newCatalog(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.Write([]byte(`<div class="movie-card"></div>`))
			})

			res, err := c.Mood(ctx, "happy")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if res.Fragment == "" || len(res.Titles) != 0 {
				t.Errorf("expected fragment result, got %+v", res)
			}
		})

		t.Run("JSON Titles", func(t *testing.T) {
			c := newCatalog(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 200, map[string][]string{"recommendations": {"Up", "Amelie"}})
			})

			res, err := c.Mood(ctx, "happy")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(res.Titles) != 2 || res.Titles[1] != "Amelie" {
				t.Errorf("unexpected titles %v", res.Titles)
			}
		})
	})

	t.Run("Personal", func(t *testing.T) {
		c := newCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok" {
				writeJSON(w, 401, map[string]string{"error": "Invalid token"})
				return
			}
			writeJSON(w, 200, map[string]any{
				"liked_count":     3,
				"user_history":    []map[string]string{{"movie_title": "Up", "interaction_type": "liked"}},
				"recommendations": []string{"Coco"},
			})
		})

		if _, err := c.Personal(ctx, ""); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated without token, got %v", err)
		}
		if _, err := c.Personal(ctx, "bad"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated for 401, got %v", err)
		}

		p, err := c.Personal(ctx, "tok")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if p.LikedCount != 3 || len(p.UserHistory) != 1 || p.Recommendations[0] != "Coco" {
			t.Errorf("unexpected payload %+v", p)
		}
	})

	t.Run("Track", func(t *testing.T) {
		var got map[string]string
		c := newCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&got)
			writeJSON(w, 201, map[string]string{"status": "ok"})
		})

		err := c.Track(ctx, "tok", models.Interaction{MovieTitle: "Up", IMDbID: "tt1049413", Kind: models.Liked})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got["movie_title"] != "Up" || got["imdb_id"] != "tt1049413" || got["interaction_type"] != "liked" {
			t.Errorf("unexpected record %v", got)
		}
		if _, ok := got["mood_context"]; ok {
			t.Error("expected mood_context to be omitted")
		}
	})

	t.Run("SubmitFeedback", func(t *testing.T) {
		c := newCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 200, map[string]string{"message": "Thanks!"})
		})

		if _, err := c.SubmitFeedback(ctx, "", models.Feedback{Name: "a"}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}

		msg, err := c.SubmitFeedback(ctx, "", models.Feedback{Name: "a", Email: "a@b.c", Message: "hi", Rating: 5})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if msg != "Thanks!" {
			t.Errorf("expected server message, got %q", msg)
		}
	})
}
