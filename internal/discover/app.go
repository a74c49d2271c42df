package discover

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flickx/internal/dom"
	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/services"
	"github.com/desertthunder/flickx/internal/shared"
	"github.com/desertthunder/flickx/internal/tasks"
)

// Detail error copy shown in #status-message.
const (
	MsgDetailNotFound = "Movie details not found."
	MsgDetailError    = "An error occurred. Please try again."
)

// Deps are the external collaborators of an [App].
type Deps struct {
	Catalog Catalog
	Auth    services.AuthProvider
	Logger  *log.Logger
	Opener  shared.Opener
	UI      shared.UIConfig
}

// App wires the page, the session controller, the dispatcher and the tracker together.
// Hosts drive it by clicking page elements or calling its methods.
type App struct {
	Page       *Page
	Session    *SessionController
	Dispatcher *Dispatcher
	Renderer   *Renderer
	Tracker    *Tracker

	catalog Catalog
	logger  *log.Logger
	ui      shared.UIConfig
	wg      sync.WaitGroup

	mu        sync.Mutex
	activeTab string
	openSeq   uint64
}

// New builds an App with its page structure and listeners in place. Call [App.Start] to load data.
func New(deps Deps) *App {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ui := withUIDefaults(deps.UI)

	a := &App{
		Page:      NewPage(),
		catalog:   deps.Catalog,
		logger:    logger,
		ui:        ui,
		activeTab: TabTrending,
	}

	a.Renderer = NewRenderer(a, deps.Opener, shared.WithLogger(logger, "component", "renderer"))
	a.Session = NewSessionController(SessionDeps{
		Page:        a.Page,
		Auth:        deps.Auth,
		Logger:      shared.WithLogger(logger, "component", "session"),
		Timeout:     ui.DispatchTimeout,
		MessageTTL:  ui.MessageTTL,
		Spawn:       a.spawn,
		Personalize: a.personalize,
		SignedOut:   a.onSignedOut,
	})
	a.Tracker = NewTracker(deps.Catalog, a.Session, ui.TrackRate, ui.DispatchTimeout, shared.WithLogger(logger, "component", "tracker"))
	a.Dispatcher = NewDispatcher(DispatcherDeps{
		Page:         a.Page,
		Catalog:      deps.Catalog,
		Renderer:     a.Renderer,
		Session:      a.Session,
		Logger:       shared.WithLogger(logger, "component", "dispatcher"),
		Timeout:      ui.DispatchTimeout,
		ScrollDelay:  ui.ScrollDelay,
		Hydrate:      tasks.HydrateOpts{NumWorkers: ui.HydrateWorkers},
		AfterSuccess: a.afterSuccess,
		Spawn:        a.spawn,
	})

	a.Page.Update(func(root *dom.Node) {
		a.bind(root)
		a.Session.Bind(root)
	})
	return a
}

func withUIDefaults(ui shared.UIConfig) shared.UIConfig {
	def := shared.DefaultConfig().UI
	if ui.DispatchTimeout <= 0 {
		ui.DispatchTimeout = def.DispatchTimeout
	}
	if ui.ScrollDelay < 0 {
		ui.ScrollDelay = 0
	}
	if ui.MessageTTL < 0 {
		ui.MessageTTL = 0
	}
	if ui.TrackRate <= 0 {
		ui.TrackRate = def.TrackRate
	}
	if ui.HydrateWorkers <= 0 {
		ui.HydrateWorkers = def.HydrateWorkers
	}
	if len(ui.Genres) == 0 {
		ui.Genres = def.Genres
	}
	if len(ui.Moods) == 0 {
		ui.Moods = def.Moods
	}
	return ui
}

// Start restores the session and loads the trending tab.
func (a *App) Start(ctx context.Context) (*Request, error) {
	a.Session.Init(ctx)
	return a.Dispatch(ctx, Trending())
}

// Close detaches from the auth provider.
func (a *App) Close() {
	a.Session.Close()
}

// Wait blocks until every background task, including queued interaction records, has finished.
func (a *App) Wait() {
	a.wg.Wait()
	a.Tracker.Wait()
}

func (a *App) spawn(fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn()
	}()
}

// ActiveTab returns the name of the selected tab.
func (a *App) ActiveTab() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.activeTab
}

// Dispatch selects the intent's tab and starts the request.
func (a *App) Dispatch(ctx context.Context, intent Intent) (*Request, error) {
	var req *Request
	var err error
	a.Page.Update(func(root *dom.Node) {
		req, err = a.dispatchIn(ctx, root, intent)
	})
	return req, err
}

func (a *App) dispatchIn(ctx context.Context, root *dom.Node, intent Intent) (*Request, error) {
	a.activateIn(root, intent.tab())
	return a.Dispatcher.dispatchIn(ctx, root, intent)
}

// SelectTab switches tabs and loads the tab's content when it has any of its own.
func (a *App) SelectTab(name string) {
	a.Page.Update(func(root *dom.Node) { a.selectTabIn(root, name) })
}

func (a *App) selectTabIn(root *dom.Node, name string) {
	if name == TabPersonal && !a.Session.SignedIn() {
		a.Renderer.ShowStatus(root, "Please log in to see personalized recommendations.")
		return
	}
	a.activateIn(root, name)

	switch name {
	case TabTrending:
		a.logIntentErr(a.Dispatcher.dispatchIn(context.Background(), root, Trending()))
	case TabRecent:
		a.logIntentErr(a.Dispatcher.dispatchIn(context.Background(), root, Recent()))
	case TabPersonal:
		a.spawn(func() {
			if err := a.Session.RefreshPersonalView(context.Background()); err != nil {
				a.logger.Warn("failed to load personal view", "error", err)
			}
		})
	}
}

func (a *App) logIntentErr(_ *Request, err error) {
	if err != nil {
		a.logger.Debug("intent not dispatched", "error", err)
	}
}

// activateIn marks tab name and its section active.
func (a *App) activateIn(root *dom.Node, name string) {
	a.mu.Lock()
	a.activeTab = name
	a.mu.Unlock()

	for _, btn := range root.FindAll(dom.ByClass("nav-tab")) {
		if btn.Attr("data-tab") == name {
			btn.AddClass("active")
		} else {
			btn.RemoveClass("active")
		}
	}
	for _, section := range root.FindAll(dom.ByClass("tab-content")) {
		if section.ID() == name {
			section.AddClass("active")
		} else {
			section.RemoveClass("active")
		}
	}
}

func (a *App) bind(root *dom.Node) {
	for _, btn := range root.FindAll(dom.ByClass("nav-tab")) {
		name := btn.Attr("data-tab")
		btn.On("click", func(*dom.Event) { a.selectTabIn(root, name) })
	}

	byID(root, IDSearchButton).On("click", func(*dom.Event) {
		q := byID(root, IDSearchInput).Attr("value")
		a.logIntentErr(a.dispatchIn(context.Background(), root, FreeText(q)))
	})
	byID(root, IDMoodButton).On("click", func(*dom.Event) {
		m := byID(root, IDMoodInput).Attr("value")
		a.logIntentErr(a.dispatchIn(context.Background(), root, Mood(m)))
	})

	genres := byID(root, IDGenres)
	for _, genre := range a.ui.Genres {
		btn := dom.Element("button", "class", "genre", "data-genre", genre).Append(dom.Text(displayName(genre)))
		btn.On("click", func(*dom.Event) {
			a.logIntentErr(a.dispatchIn(context.Background(), root, Genre(genre)))
		})
		genres.Append(btn)
	}

	suggestions := byID(root, IDMoodSuggestion)
	for _, mood := range a.ui.Moods {
		btn := dom.Element("button", "class", "mood-suggestion", "data-mood", mood).Append(dom.Text(displayName(mood)))
		btn.On("click", func(*dom.Event) {
			byID(root, IDMoodInput).SetAttr("value", mood)
			a.logIntentErr(a.dispatchIn(context.Background(), root, Mood(mood)))
		})
		suggestions.Append(btn)
	}

	byID(root, IDCloseModal).On("click", func(*dom.Event) { a.Renderer.CloseDetail(root) })
	modal := byID(root, IDMovieModal)
	modal.On("click", func(ev *dom.Event) {
		if ev.Target == modal {
			a.Renderer.CloseDetail(root)
		}
	})
}

func displayName(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// OpenCard records a view and loads the detail modal. The last card opened wins.
func (a *App) OpenCard(ref CardRef) {
	a.mu.Lock()
	a.openSeq++
	seq := a.openSeq
	a.mu.Unlock()

	a.Tracker.Record(ref, models.Viewed)
	a.spawn(func() { a.openDetail(seq, ref) })
}

// Interact records a like or watchlist action. Signed-out interactions are dropped.
func (a *App) Interact(ref CardRef, kind models.InteractionKind) {
	if !a.Tracker.Record(ref, kind) {
		a.logger.Info("log in to save interactions", "kind", kind, "title", ref.Title)
	}
}

func (a *App) openDetail(seq uint64, ref CardRef) {
	ctx, cancel := context.WithTimeout(context.Background(), a.ui.DispatchTimeout)
	defer cancel()

	var d *models.MovieDetail
	var err error
	if ref.IMDbID != "" {
		d, err = a.catalog.Detail(ctx, ref.IMDbID)
	} else {
		d, err = a.catalog.LookupTitle(ctx, ref.Title)
	}

	a.Page.Update(func(root *dom.Node) {
		a.mu.Lock()
		current := a.openSeq == seq
		a.mu.Unlock()
		if !current {
			return
		}

		switch {
		case errors.Is(err, shared.ErrMovieNotFound):
			a.Renderer.ShowStatus(root, MsgDetailNotFound)
		case err != nil:
			a.logger.Warn("failed to load details", "title", ref.Title, "imdb_id", ref.IMDbID, "error", err)
			a.Renderer.ShowStatus(root, MsgDetailError)
		default:
			if err := a.Renderer.ShowDetail(root, d); err != nil {
				a.logger.Error("failed to render details", "title", ref.Title, "error", err)
				a.Renderer.ShowStatus(root, MsgDetailError)
			}
		}
	})
}

// CloseDetail hides the detail modal.
func (a *App) CloseDetail() {
	a.Page.Update(a.Renderer.CloseDetail)
}

// personalize refreshes whichever personal surface is showing: the full tab when it is
// selected, otherwise just the statistics panel.
func (a *App) personalize(ctx context.Context, s *models.Session) error {
	if a.ActiveTab() == TabPersonal {
		req, err := a.Dispatcher.Dispatch(ctx, Personal())
		if err != nil {
			return err
		}
		select {
		case <-req.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
		if st := req.State(); st.Status == Failed && !errors.Is(st.Err, ErrSuperseded) {
			return st.Err
		}
		return nil
	}

	p, err := a.catalog.Personal(ctx, s.AccessToken)
	if err != nil {
		return err
	}
	liked, viewed := personalStats(p)
	a.Page.Update(func(root *dom.Node) {
		if sameSession(a.Session.Session(), s) {
			a.Renderer.RenderStats(root, liked, viewed)
		}
	})
	return nil
}

func (a *App) onSignedOut() {
	if a.ActiveTab() == TabPersonal {
		a.SelectTab(TabTrending)
	}
}

func (a *App) afterSuccess(st State) {
	switch st.Intent.Kind {
	case FreeTextIntent, GenreIntent, MoodIntent:
		a.Page.ScrollTo(IDResults)
	}
}
