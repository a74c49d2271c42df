package discover

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flickx/internal/dom"
	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
)

// CardRef identifies the movie behind a rendered card.
type CardRef struct {
	Title  string
	IMDbID string
	Mood   string
}

// CardActions receives card interactions.
//
// Both methods are called from listeners with the page locked. Implementations must not
// block or touch the page directly.
type CardActions interface {
	OpenCard(ref CardRef)
	Interact(ref CardRef, kind models.InteractionKind)
}

// Message kinds used as the second class of a results message.
const (
	MessageNoResults = "no-results"
	MessageError     = "error"
)

var templates = template.Must(template.New("cards").Funcs(template.FuncMap{
	"orNA":     shared.OrNA,
	"truncate": shared.Truncate,
}).Parse(`
{{define "summary"}}<div class="movie-card" data-imdbid="{{.IMDbID}}" data-title="{{.Title}}">
<img class="movie-poster" src="{{.PosterURL}}" alt="{{.Title}}">
<h3 class="movie-title">{{.Title}}</h3>
<p class="movie-year">Year: {{.Year}}</p>
</div>{{end}}

{{define "links"}}{{range .}}<a class="streaming-link" href="{{.URL}}" data-color="{{.Color}}" target="_blank">{{.Name}}</a>{{end}}{{end}}

{{define "enhanced"}}{{$d := .Detail}}<div class="enhanced-movie-card" data-imdbid="{{$d.IMDbID}}" data-title="{{$d.Title}}"{{with .Mood}} data-mood="{{.}}"{{end}}>
<div class="movie-poster-container">
<img class="enhanced-movie-poster" src="{{$d.PosterURL}}" alt="{{$d.Title}}">
<div class="movie-overlay"><span class="movie-rating">⭐ {{orNA $d.Rating}}</span></div>
<div class="movie-actions">
<button class="action-btn like-btn" data-kind="liked" data-movie="{{$d.Title}}" data-imdb="{{$d.IMDbID}}" title="Like">❤️</button>
<button class="action-btn watchlist-btn" data-kind="watchlist" data-movie="{{$d.Title}}" data-imdb="{{$d.IMDbID}}" title="Add to watchlist">📋</button>
</div>
</div>
<div class="enhanced-movie-info">
<h3 class="enhanced-movie-title">{{$d.Title}}</h3>
<p class="movie-year-genre">{{$d.Year}} • {{$d.Genre}}</p>
<p class="movie-runtime">⏱️ {{orNA $d.Runtime}}</p>
<p class="movie-plot">{{truncate $d.Plot 100}}</p>
<div class="streaming-links">{{template "links" $d.Links}}</div>
</div>
</div>{{end}}

{{define "message"}}<div class="results-message {{.Kind}}"><h3>{{.Title}}</h3><p>{{.Body}}</p></div>{{end}}

{{define "loading"}}<div class="loading"><div class="spinner"></div><p>{{.}}</p></div>{{end}}

{{define "detail"}}<div class="modal-movie">
<img class="modal-poster" src="{{.PosterURL}}" alt="{{.Title}}">
<div class="modal-info">
<h2 class="modal-title">{{.Title}}</h2>
<p><strong>Year:</strong> {{orNA .Year}}</p>
<p><strong>Genre:</strong> {{orNA .Genre}}</p>
<p><strong>Director:</strong> {{orNA .Director}}</p>
<p><strong>Actors:</strong> {{orNA .Actors}}</p>
<p><strong>Runtime:</strong> {{orNA .Runtime}}</p>
<p><strong>Language:</strong> {{orNA .Language}}</p>
<p><strong>IMDB Rating:</strong> ⭐ {{orNA .Rating}}</p>
<p><strong>Metascore:</strong> {{orNA .Metascore}}</p>
<p class="modal-plot"><strong>Plot:</strong> {{orNA .Plot}}</p>
<div class="modal-streaming"><strong>Watch/Download:</strong> {{template "links" .Links}}</div>
</div>
</div>{{end}}

{{define "stats"}}<div class="stats-container">
<div class="stat-item"><span class="stat-number">{{.Liked}}</span> <span class="stat-label">Movies Liked</span></div>
<div class="stat-item"><span class="stat-number">{{.Viewed}}</span> <span class="stat-label">Movies Viewed</span></div>
</div>{{end}}
`))

// Renderer turns movie data into card markup inside the page and binds card listeners.
//
// Every method takes the page root and must be called inside [Page.Update].
type Renderer struct {
	actions CardActions
	opener  shared.Opener
	logger  *log.Logger
}

// NewRenderer creates a renderer. A nil opener makes streaming links inert.
func NewRenderer(actions CardActions, opener shared.Opener, logger *log.Logger) *Renderer {
	if opener == nil {
		opener = func(string) error { return nil }
	}
	return &Renderer{actions: actions, opener: opener, logger: logger}
}

func execute(name string, data any) ([]*dom.Node, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return dom.Parse(buf.String())
}

// RenderSummaries replaces the results with one summary card per movie and returns the count.
func (r *Renderer) RenderSummaries(root *dom.Node, movies []models.MovieSummary) (int, error) {
	var nodes []*dom.Node
	for _, m := range movies {
		card, err := execute("summary", m)
		if err != nil {
			return 0, err
		}
		nodes = append(nodes, card...)
	}
	return r.replaceResults(root, nodes), nil
}

// RenderDetails replaces the results with enhanced cards. mood tags interactions from these cards.
func (r *Renderer) RenderDetails(root *dom.Node, movies []models.MovieDetail, mood string) (int, error) {
	var nodes []*dom.Node
	for _, m := range movies {
		card, err := execute("enhanced", struct {
			Detail models.MovieDetail
			Mood   string
		}{m, mood})
		if err != nil {
			return 0, err
		}
		nodes = append(nodes, card...)
	}
	return r.replaceResults(root, nodes), nil
}

// RenderFragment inserts backend-rendered markup into the results and binds any cards in it.
func (r *Renderer) RenderFragment(root *dom.Node, fragment string) (int, error) {
	nodes, err := dom.Parse(fragment)
	if err != nil {
		return 0, err
	}
	return r.replaceResults(root, nodes), nil
}

func (r *Renderer) replaceResults(root *dom.Node, nodes []*dom.Node) int {
	results := byID(root, IDResults)
	results.ReplaceChildren(nodes...)
	cards := results.FindAll(isCard)
	for _, card := range cards {
		r.bindCard(card)
	}
	return len(cards)
}

// RenderMessage replaces the results with a titled message.
func (r *Renderer) RenderMessage(root *dom.Node, kind, title, body string) {
	nodes, err := execute("message", struct{ Kind, Title, Body string }{kind, title, body})
	if err != nil {
		r.logger.Error("failed to render message", "error", err)
		byID(root, IDResults).SetText(title)
		return
	}
	byID(root, IDResults).ReplaceChildren(nodes...)
}

// RenderLoading replaces the results with a spinner.
func (r *Renderer) RenderLoading(root *dom.Node, text string) {
	nodes, err := execute("loading", text)
	if err != nil {
		byID(root, IDResults).SetText(text)
		return
	}
	byID(root, IDResults).ReplaceChildren(nodes...)
}

// RenderStats fills the personal statistics panel.
func (r *Renderer) RenderStats(root *dom.Node, liked, viewed int) {
	nodes, err := execute("stats", struct{ Liked, Viewed int }{liked, viewed})
	if err != nil {
		r.logger.Error("failed to render stats", "error", err)
		return
	}
	byID(root, IDPersonalStats).ReplaceChildren(nodes...)
}

// ClearStats empties the personal statistics panel.
func (r *Renderer) ClearStats(root *dom.Node) {
	byID(root, IDPersonalStats).ReplaceChildren()
}

// ShowDetail fills and opens the detail modal.
func (r *Renderer) ShowDetail(root *dom.Node, d *models.MovieDetail) error {
	nodes, err := execute("detail", d)
	if err != nil {
		return err
	}
	content := byID(root, IDModalContent)
	content.ReplaceChildren(nodes...)
	for _, a := range content.FindAll(dom.ByClass("streaming-link")) {
		r.bindLink(a)
	}
	byID(root, IDMovieModal).Show()
	return nil
}

// CloseDetail hides the detail modal. Closing a closed modal does nothing.
func (r *Renderer) CloseDetail(root *dom.Node) {
	byID(root, IDMovieModal).Hide()
}

// ShowStatus shows a one-line notice above the results.
func (r *Renderer) ShowStatus(root *dom.Node, msg string) {
	status := byID(root, IDStatus)
	status.SetText(msg)
	status.Show()
}

// ClearStatus hides the notice.
func (r *Renderer) ClearStatus(root *dom.Node) {
	status := byID(root, IDStatus)
	status.ReplaceChildren()
	status.Hide()
}

func isCard(n *dom.Node) bool {
	return n.HasClass("movie-card") || n.HasClass("enhanced-movie-card")
}

var isControl = dom.AnyOf(dom.ByClass("action-btn"), dom.ByClass("streaming-link"))

func (r *Renderer) bindCard(card *dom.Node) {
	ref := cardRef(card)

	card.On("click", func(ev *dom.Event) {
		if c := ev.Target.Closest(isControl); c != nil && card.Contains(c) {
			return
		}
		r.actions.OpenCard(ref)
	})

	for _, btn := range card.FindAll(dom.ByClass("action-btn")) {
		kind, err := models.ParseInteractionKind(actionKind(btn))
		if err != nil {
			r.logger.Debug("unbound action button", "class", btn.Attr("class"))
			continue
		}
		btn.On("click", func(ev *dom.Event) {
			ev.StopPropagation()
			btn.ToggleClass("active")
			r.actions.Interact(ref, kind)
		})
	}

	for _, a := range card.FindAll(dom.ByClass("streaming-link")) {
		r.bindLink(a)
	}
}

func (r *Renderer) bindLink(a *dom.Node) {
	href := a.Attr("href")
	a.On("click", func(ev *dom.Event) {
		ev.StopPropagation()
		if href == "" {
			return
		}
		if err := r.opener(href); err != nil {
			r.logger.Warn("failed to open link", "url", href, "error", err)
		}
	})
}

// actionKind reads data-kind, falling back to the button class used by backend markup.
func actionKind(btn *dom.Node) string {
	if k := btn.Attr("data-kind"); k != "" {
		return k
	}
	switch {
	case btn.HasClass("like-btn"):
		return string(models.Liked)
	case btn.HasClass("watchlist-btn"):
		return string(models.Watchlist)
	default:
		return ""
	}
}

func cardRef(card *dom.Node) CardRef {
	title := card.Attr("data-title")
	if title == "" {
		if h := card.Find(dom.ByTag("h3")); h != nil {
			title = h.InnerText()
		}
	}
	return CardRef{Title: title, IMDbID: card.Attr("data-imdbid"), Mood: card.Attr("data-mood")}
}
