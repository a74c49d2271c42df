package discover

import (
	"strings"

	"github.com/desertthunder/flickx/internal/dom"
	"github.com/desertthunder/flickx/internal/models"
)

// Cards reads the movies shown as cards below container, in document order.
// Fields a card does not display are left empty.
func Cards(container *dom.Node) []models.MovieDetail {
	nodes := container.FindAll(isCard)
	movies := make([]models.MovieDetail, 0, len(nodes))
	for _, card := range nodes {
		movies = append(movies, cardDetail(card))
	}
	return movies
}

// Results reads the movies currently shown in the results region.
func (p *Page) Results() []models.MovieDetail {
	var movies []models.MovieDetail
	p.View(func(root *dom.Node) { movies = Cards(byID(root, IDResults)) })
	return movies
}

func cardDetail(card *dom.Node) models.MovieDetail {
	ref := cardRef(card)
	d := models.MovieDetail{MovieSummary: models.MovieSummary{Title: ref.Title, IMDbID: ref.IMDbID}}

	if img := card.Find(dom.ByTag("img")); img != nil {
		d.Poster = img.Attr("src")
	}
	if p := card.Find(dom.ByClass("movie-year")); p != nil {
		d.Year = strings.TrimSpace(strings.TrimPrefix(p.InnerText(), "Year:"))
	}
	if p := card.Find(dom.ByClass("movie-year-genre")); p != nil {
		year, genre, _ := strings.Cut(p.InnerText(), "•")
		d.Year, d.Genre = strings.TrimSpace(year), strings.TrimSpace(genre)
	}
	if s := card.Find(dom.ByClass("movie-rating")); s != nil {
		d.Rating = strings.TrimSpace(strings.TrimPrefix(s.InnerText(), "⭐"))
	}
	if p := card.Find(dom.ByClass("movie-runtime")); p != nil {
		d.Runtime = strings.TrimSpace(strings.TrimPrefix(p.InnerText(), "⏱️"))
	}
	if p := card.Find(dom.ByClass("movie-plot")); p != nil {
		d.Plot = p.InnerText()
	}
	for _, a := range card.FindAll(dom.ByClass("streaming-link")) {
		d.StreamingLinks = append(d.StreamingLinks, models.StreamingLink{
			Name:  a.InnerText(),
			URL:   a.Attr("href"),
			Color: a.Attr("data-color"),
		})
	}
	return d
}

// ClickCard clicks the i-th result card, or the first element matching m inside it when m is
// not nil. It reports whether a target was found.
func (p *Page) ClickCard(i int, m dom.Matcher) bool {
	found := false
	p.Update(func(root *dom.Node) {
		cards := byID(root, IDResults).FindAll(isCard)
		if i < 0 || i >= len(cards) {
			return
		}
		target := cards[i]
		if m != nil {
			if target = target.Find(m); target == nil {
				return
			}
		}
		found = true
		target.Click()
	})
	return found
}
