// OMDb-shaped payloads as relayed by the backend search and detail routes.
package services

import (
	"strings"

	"github.com/desertthunder/flickx/internal/models"
)

// OMDbSearchItem is one hit in a search response.
type OMDbSearchItem struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	IMDbID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

// OMDbSearch is the search envelope. Response is "True" or "False".
type OMDbSearch struct {
	Response     string           `json:"Response"`
	Error        string           `json:"Error,omitempty"`
	TotalResults string           `json:"totalResults,omitempty"`
	Search       []OMDbSearchItem `json:"Search"`
}

// OMDbMovie is a title/detail lookup, optionally carrying backend streaming links.
type OMDbMovie struct {
	Response       string                 `json:"Response"`
	Error          string                 `json:"Error,omitempty"`
	Title          string                 `json:"Title"`
	Year           string                 `json:"Year"`
	IMDbID         string                 `json:"imdbID"`
	Poster         string                 `json:"Poster"`
	Genre          string                 `json:"Genre"`
	Director       string                 `json:"Director"`
	Actors         string                 `json:"Actors"`
	Runtime        string                 `json:"Runtime"`
	Language       string                 `json:"Language"`
	Plot           string                 `json:"Plot"`
	IMDbRating     string                 `json:"imdbRating"`
	Metascore      string                 `json:"Metascore"`
	StreamingLinks []models.StreamingLink `json:"streaming_links,omitempty"`
}

func found(response string) bool {
	return strings.EqualFold(response, "True")
}

// Summaries converts the hits to [models.MovieSummary].
func (s OMDbSearch) Summaries() []models.MovieSummary {
	out := make([]models.MovieSummary, 0, len(s.Search))
	for _, item := range s.Search {
		out = append(out, models.MovieSummary{
			IMDbID: item.IMDbID,
			Title:  item.Title,
			Year:   item.Year,
			Poster: item.Poster,
		})
	}
	return out
}

// Detail converts the lookup to [models.MovieDetail].
func (m OMDbMovie) Detail() models.MovieDetail {
	return models.MovieDetail{
		MovieSummary: models.MovieSummary{
			IMDbID: m.IMDbID,
			Title:  m.Title,
			Year:   m.Year,
			Poster: m.Poster,
		},
		Genre:          m.Genre,
		Director:       m.Director,
		Actors:         m.Actors,
		Runtime:        m.Runtime,
		Language:       m.Language,
		Plot:           m.Plot,
		Rating:         m.IMDbRating,
		Metascore:      m.Metascore,
		StreamingLinks: m.StreamingLinks,
	}
}
