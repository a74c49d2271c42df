// Movie catalog client over the backend routes
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
)

// CatalogService reads movie data from the backend. The backend proxies the metadata API,
// so no third-party key is held client-side.
type CatalogService struct {
	api    *APIService
	routes shared.RoutesConfig
}

// MoodResult is either a pre-rendered fragment or a list of titles to hydrate.
type MoodResult struct {
	Fragment string
	Titles   []string
}

// NewCatalogService creates a catalog over api. Empty routes fall back to the backend defaults.
func NewCatalogService(api *APIService, routes shared.RoutesConfig) *CatalogService {
	def := defaultRoutes()
	for _, r := range []struct{ dst *string; val string }{
		{&routes.Search, def.Search},
		{&routes.Trending, def.Trending},
		{&routes.Recent, def.Recent},
		{&routes.Mood, def.Mood},
		{&routes.Detail, def.Detail},
		{&routes.Personal, def.Personal},
		{&routes.Track, def.Track},
		{&routes.Feedback, def.Feedback},
	} {
		if *r.dst == "" {
			*r.dst = r.val
		}
	}
	return &CatalogService{api: api, routes: routes}
}

// NewCatalogFromConfig builds the production client: a cookie jar for the anti-forgery
// cookie, a request timeout, and a circuit breaker around the transport.
func NewCatalogFromConfig(cfg shared.BackendConfig, logger *log.Logger) (*CatalogService, *BreakerTransport, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	breaker := NewBreakerTransport(nil, cfg.Breaker, logger)
	client := &http.Client{
		Timeout:   cfg.RequestTimeout,
		Jar:       jar,
		Transport: breaker,
	}

	api := NewAPIService(cfg.BaseURL, client).WithCSRFCookie(cfg.CSRFCookie)
	return NewCatalogService(api, cfg.Routes), breaker, nil
}

func defaultRoutes() shared.RoutesConfig {
	return shared.RoutesConfig{
		Search:   "/api/search/",
		Trending: "/trending-movies/",
		Recent:   "/recent-movies/",
		Mood:     "/mood-recommendations/",
		Detail:   "/movie-details/%s/",
		Personal: "/api/user/recommendations/",
		Track:    "/api/movies/track/",
		Feedback: "/feedback/",
	}
}

// Search runs a free-text title search. A "False" response is an empty result, not an error.
func (c *CatalogService) Search(ctx context.Context, query string) ([]models.MovieSummary, error) {
	resp, err := c.api.Get(ctx, c.routes.Search, url.Values{"s": {query}}, "")
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var result OMDbSearch
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	if !found(result.Response) {
		return []models.MovieSummary{}, nil
	}
	return result.Summaries(), nil
}

// LookupTitle fetches full details for an exact title, used to hydrate recommendation lists.
func (c *CatalogService) LookupTitle(ctx context.Context, title string) (*models.MovieDetail, error) {
	resp, err := c.api.Get(ctx, c.routes.Search, url.Values{"t": {title}, "plot": {"full"}}, "")
	if err != nil {
		return nil, err
	}
	return decodeMovie(resp, title)
}

// Detail fetches one movie by IMDb id, including streaming links.
func (c *CatalogService) Detail(ctx context.Context, imdbID string) (*models.MovieDetail, error) {
	path := fmt.Sprintf(c.routes.Detail, url.PathEscape(imdbID))
	resp, err := c.api.Get(ctx, path, nil, "")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", shared.ErrMovieNotFound, imdbID)
	}
	return decodeMovie(resp, imdbID)
}

func decodeMovie(resp *APIResponse, key string) (*models.MovieDetail, error) {
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var movie OMDbMovie
	if err := resp.Decode(&movie); err != nil {
		return nil, err
	}
	if !found(movie.Response) {
		return nil, fmt.Errorf("%w: %s", shared.ErrMovieNotFound, key)
	}

	detail := movie.Detail()
	return &detail, nil
}

// Trending returns the backend's pre-rendered trending fragment.
func (c *CatalogService) Trending(ctx context.Context) (string, error) {
	return c.fragment(ctx, c.routes.Trending)
}

// Recent returns the backend's pre-rendered recent releases fragment.
func (c *CatalogService) Recent(ctx context.Context) (string, error) {
	return c.fragment(ctx, c.routes.Recent)
}

func (c *CatalogService) fragment(ctx context.Context, path string) (string, error) {
	resp, err := c.api.Get(ctx, path, nil, "")
	if err != nil {
		return "", err
	}
	if err := resp.Err(); err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// Mood posts a mood to the recommendation route. The backend answers with a fragment
// or, when it returns JSON, a list of titles.
func (c *CatalogService) Mood(ctx context.Context, mood string) (*MoodResult, error) {
	resp, err := c.api.PostForm(ctx, c.routes.Mood, url.Values{"mood": {mood}})
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	if strings.Contains(resp.Headers.Get("Content-Type"), "application/json") {
		var payload struct {
			Recommendations []string `json:"recommendations"`
		}
		if err := resp.Decode(&payload); err != nil {
			return nil, err
		}
		return &MoodResult{Titles: payload.Recommendations}, nil
	}

	return &MoodResult{Fragment: string(resp.Body)}, nil
}

// Personal fetches the personalization payload for the bearer token.
func (c *CatalogService) Personal(ctx context.Context, token string) (*models.PersonalRecommendations, error) {
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	resp, err := c.api.Get(ctx, c.routes.Personal, nil, token)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var payload models.PersonalRecommendations
	if err := resp.Decode(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Track posts an interaction record. The response body is ignored.
func (c *CatalogService) Track(ctx context.Context, token string, rec models.Interaction) error {
	if token == "" {
		return shared.ErrNotAuthenticated
	}

	resp, err := c.api.PostJSON(ctx, c.routes.Track, rec, token)
	if err != nil {
		return err
	}
	return resp.Err()
}

// SubmitFeedback posts the feedback form. token is optional; anonymous feedback is accepted.
func (c *CatalogService) SubmitFeedback(ctx context.Context, token string, fb models.Feedback) (string, error) {
	if err := fb.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	resp, err := c.api.PostJSON(ctx, c.routes.Feedback, fb, token)
	if err != nil {
		return "", err
	}
	if err := resp.Err(); err != nil {
		return "", err
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := resp.Decode(&payload); err != nil || payload.Message == "" {
		return "Feedback submitted successfully!", nil
	}
	return payload.Message, nil
}
