package dom

import (
	"strings"
	"testing"
)

func TestNode(t *testing.T) {
	t.Run("Attributes And Classes", func(t *testing.T) {
		n := Element("div", "id", "card", "class", "movie-card")

		if n.ID() != "card" {
			t.Errorf("expected id card, got %s", n.ID())
		}
		if !n.HasClass("movie-card") {
			t.Error("expected movie-card class")
		}

		if on := n.ToggleClass("active"); !on {
			t.Error("expected active to be added")
		}
		if !n.HasClass("active") {
			t.Error("expected active class after toggle")
		}
		if on := n.ToggleClass("active"); on {
			t.Error("expected active to be removed")
		}
		if n.Attr("class") != "movie-card" {
			t.Errorf("expected class attr movie-card, got %q", n.Attr("class"))
		}

		n.SetAttr("data-imdbid", "tt1")
		n.SetAttr("data-imdbid", "tt2")
		if n.Attr("data-imdbid") != "tt2" || len(n.Attrs) != 3 {
			t.Errorf("expected overwrite of data-imdbid, got %+v", n.Attrs)
		}
	})

	t.Run("Visibility", func(t *testing.T) {
		parent := Element("div")
		child := Element("span")
		parent.Append(child)

		parent.Hide()
		parent.Hide()
		if child.Visible() {
			t.Error("child of hidden parent should not be visible")
		}
		parent.Show()
		if !child.Visible() {
			t.Error("child should be visible after parent is shown")
		}
	})

	t.Run("Append Moves Node", func(t *testing.T) {
		a, b := Element("div"), Element("div")
		c := Element("p")
		a.Append(c)
		b.Append(c)

		if len(a.Children) != 0 || len(b.Children) != 1 || c.Parent != b {
			t.Error("expected child to move from a to b")
		}
	})

	t.Run("Text", func(t *testing.T) {
		n := Element("p")
		n.Append(Text("  Year: "), Element("b").Append(Text("1999")), Text("\n"))
		if got := n.InnerText(); got != "Year: 1999" {
			t.Errorf("expected collapsed text, got %q", got)
		}
		n.SetText("replaced")
		if n.TextContent() != "replaced" || len(n.Children) != 1 {
			t.Errorf("expected single replaced text node, got %q", n.TextContent())
		}
	})
}

func TestEvents(t *testing.T) {
	t.Run("Bubbles To Ancestors", func(t *testing.T) {
		root := Element("div")
		card := Element("div", "class", "card")
		btn := Element("button")
		root.Append(card.Append(btn))

		var order []string
		root.On("click", func(e *Event) { order = append(order, "root") })
		card.On("click", func(e *Event) {
			if e.Target != btn || e.Current != card {
				t.Errorf("unexpected target/current: %v %v", e.Target, e.Current)
			}
			order = append(order, "card")
		})
		btn.On("click", func(e *Event) { order = append(order, "btn") })

		btn.Click()
		if strings.Join(order, ",") != "btn,card,root" {
			t.Errorf("unexpected bubble order %v", order)
		}
	})

	t.Run("StopPropagation", func(t *testing.T) {
		card := Element("div")
		btn := Element("button")
		card.Append(btn)

		cardHits := 0
		card.On("click", func(*Event) { cardHits++ })
		btn.On("click", func(e *Event) { e.StopPropagation() })

		ev := btn.Click()
		if cardHits != 0 {
			t.Errorf("expected card listener not to run, ran %d times", cardHits)
		}
		if !ev.Stopped() {
			t.Error("expected event to report stopped")
		}
	})

	t.Run("ReplaceChildren Drops Listeners", func(t *testing.T) {
		container := Element("div")
		old := Element("div")
		inner := Element("button")
		old.Append(inner)
		old.On("click", func(*Event) {})
		inner.On("click", func(*Event) {})
		container.Append(old)

		container.ReplaceChildren(Element("div"))

		if old.Parent != nil {
			t.Error("replaced node should be detached")
		}
		if old.ListenerCount("click") != 0 || inner.ListenerCount("click") != 0 {
			t.Error("replaced subtree should have no listeners")
		}
		if len(container.Children) != 1 {
			t.Errorf("expected 1 child, got %d", len(container.Children))
		}
	})

	t.Run("Remove Keeps Listeners", func(t *testing.T) {
		parent := Element("div")
		n := Element("div")
		n.On("click", func(*Event) {})
		parent.Append(n)
		n.Remove()

		if n.ListenerCount("click") != 1 {
			t.Error("Remove should keep listeners")
		}
	})
}

func TestQuery(t *testing.T) {
	root := Element("div")
	a := Element("div", "class", "movie-card", "data-imdbid", "tt1")
	b := Element("div", "class", "enhanced-movie-card", "data-imdbid", "tt2")
	btn := Element("button", "class", "action-btn like-btn")
	b.Append(btn)
	root.Append(a, b)

	cards := root.FindAll(AllOf(AnyOf(ByClass("movie-card"), ByClass("enhanced-movie-card")), WithAttr("data-imdbid")))
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	if cards[0] != a || cards[1] != b {
		t.Error("expected document order")
	}

	if got := btn.Closest(WithAttr("data-imdbid")); got != b {
		t.Error("expected closest card to be b")
	}
	if got := root.Find(ByAttr("data-imdbid", "tt2")); got != b {
		t.Error("expected ByAttr to match b")
	}
	if root.Find(ByID("missing")) != nil {
		t.Error("expected nil for missing id")
	}
	if !root.Contains(btn) || a.Contains(btn) {
		t.Error("unexpected Contains result")
	}
	if btn.Root() != root {
		t.Error("expected root")
	}
}

func TestParseAndRender(t *testing.T) {
	fragment := `
<div class="enhanced-movie-card" data-imdbid="tt4154796">
  <!-- card -->
  <h3 class="enhanced-movie-title">Avengers: Endgame</h3>
  <button class="action-btn like-btn" data-movie="Avengers: Endgame" data-imdb="tt4154796">&#10084;</button>
</div>
<p>trailing &amp; text</p>`

	nodes, err := Parse(fragment)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	container := Element("div", "id", "movie-results")
	container.ReplaceChildren(nodes...)

	card := container.Find(WithAttr("data-imdbid"))
	if card == nil {
		t.Fatal("expected a card")
	}
	if card.Attr("data-imdbid") != "tt4154796" {
		t.Errorf("expected imdb id tt4154796, got %s", card.Attr("data-imdbid"))
	}
	if title := card.Find(ByClass("enhanced-movie-title")); title == nil || title.InnerText() != "Avengers: Endgame" {
		t.Errorf("expected title node, got %v", title)
	}
	if p := container.Find(ByTag("p")); p == nil || p.InnerText() != "trailing & text" {
		t.Errorf("expected unescaped paragraph text, got %v", p)
	}

	out := container.OuterHTML()
	if !strings.Contains(out, `data-imdbid="tt4154796"`) {
		t.Errorf("expected rendered attribute, got %s", out)
	}
	if strings.Contains(out, "<!--") {
		t.Error("comments should be dropped")
	}
	if !strings.Contains(out, "trailing &amp; text") {
		t.Errorf("expected escaped text on render, got %s", out)
	}
}

func TestRenderEscapesText(t *testing.T) {
	n := Element("h3")
	n.SetText(`<script>alert("x")</script>`)
	if out := n.OuterHTML(); strings.Contains(out, "<script>") {
		t.Errorf("expected text to be escaped, got %s", out)
	}
}
