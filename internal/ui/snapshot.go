package ui

import (
	"github.com/desertthunder/flickx/internal/discover"
	"github.com/desertthunder/flickx/internal/dom"
	"github.com/desertthunder/flickx/internal/models"
)

// snapshot is everything the View needs, read from the page under one lock.
type snapshot struct {
	email    string
	signedIn bool
	status   string
	results  []models.MovieDetail
	message  []string // heading and body of a results message or loading text
	stats    string

	modalOpen  bool
	modal      []string
	modalLinks []models.StreamingLink

	authOpen   bool
	authTitle  string
	authSwitch string
	authMsg    string
	authOK     bool
}

var modalLine = dom.AnyOf(dom.ByTag("h2"), dom.ByTag("p"))

func take(page *discover.Page) snapshot {
	var s snapshot
	page.View(func(root *dom.Node) {
		find := func(id string) *dom.Node {
			if n := root.Find(dom.ByID(id)); n != nil {
				return n
			}
			return dom.Element("div")
		}

		if info := find(discover.IDUserInfo); info.Visible() {
			s.signedIn = true
			s.email = find(discover.IDUserEmail).InnerText()
		}
		if st := find(discover.IDStatus); st.Visible() {
			s.status = st.InnerText()
		}

		results := find(discover.IDResults)
		s.results = discover.Cards(results)
		if len(s.results) == 0 {
			for _, n := range results.FindAll(dom.AnyOf(dom.ByTag("h3"), dom.ByTag("p"))) {
				if t := n.InnerText(); t != "" {
					s.message = append(s.message, t)
				}
			}
		}
		s.stats = find(discover.IDPersonalStats).InnerText()

		if modal := find(discover.IDMovieModal); modal.Visible() {
			s.modalOpen = true
			content := find(discover.IDModalContent)
			for _, n := range content.FindAll(modalLine) {
				s.modal = append(s.modal, n.InnerText())
			}
			for _, a := range content.FindAll(dom.ByClass("streaming-link")) {
				s.modalLinks = append(s.modalLinks, models.StreamingLink{Name: a.InnerText(), URL: a.Attr("href")})
			}
		}

		if auth := find(discover.IDAuthModal); auth.Visible() {
			s.authOpen = true
			s.authTitle = find(discover.IDAuthTitle).InnerText()
			s.authSwitch = find(discover.IDAuthSwitchText).InnerText() + " " + find(discover.IDAuthSwitch).InnerText()
		}
		if msg := find(discover.IDAuthMessage); msg.Visible() {
			s.authMsg = msg.InnerText()
			s.authOK = msg.HasClass("success")
		}
	})
	return s
}
