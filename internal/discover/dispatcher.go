package discover

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flickx/internal/dom"
	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/services"
	"github.com/desertthunder/flickx/internal/shared"
	"github.com/desertthunder/flickx/internal/tasks"
)

// ErrSuperseded marks a request whose response arrived after a newer request was dispatched.
var ErrSuperseded = errors.New("superseded by a newer request")

// Catalog is the movie backend as the controllers use it.
type Catalog interface {
	Search(ctx context.Context, query string) ([]models.MovieSummary, error)
	LookupTitle(ctx context.Context, title string) (*models.MovieDetail, error)
	Detail(ctx context.Context, imdbID string) (*models.MovieDetail, error)
	Trending(ctx context.Context) (string, error)
	Recent(ctx context.Context) (string, error)
	Mood(ctx context.Context, mood string) (*services.MoodResult, error)
	Personal(ctx context.Context, token string) (*models.PersonalRecommendations, error)
	Track(ctx context.Context, token string, rec models.Interaction) error
}

// DispatcherDeps are the collaborators of a [Dispatcher].
type DispatcherDeps struct {
	Page     *Page
	Catalog  Catalog
	Renderer *Renderer
	Session  SessionSource
	Logger   *log.Logger

	Timeout     time.Duration // whole request, hydration included
	ScrollDelay time.Duration // wait before AfterSuccess
	Hydrate     tasks.HydrateOpts

	// AfterSuccess runs once per successful, still-current request after ScrollDelay.
	AfterSuccess func(State)
	Spawn        func(func())
}

// Request is one dispatched intent.
type Request struct {
	Seq    uint64
	Intent Intent

	done  chan struct{}
	mu    sync.Mutex
	state State
}

// Done closes once the request has resolved, been dropped as stale, or failed.
func (r *Request) Done() <-chan struct{} { return r.done }

// State returns the request's state; final once Done is closed.
func (r *Request) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Request) finish(st State) {
	r.mu.Lock()
	r.state = st
	r.mu.Unlock()
	close(r.done)
}

// renderFunc draws a fetched result into the page and returns the number of cards shown.
type renderFunc func(root *dom.Node) (int, error)

// Dispatcher turns intents into backend calls and owns the results region.
//
// Only the most recently dispatched request may write its results; older responses are dropped.
type Dispatcher struct {
	deps DispatcherDeps

	mu      sync.Mutex
	seq     uint64
	current State
	cancel  context.CancelFunc
	subs    map[int]chan StateUpdate
	nextSub int
}

// NewDispatcher applies defaults to deps and creates an idle dispatcher.
func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	if deps.Timeout <= 0 {
		deps.Timeout = 20 * time.Second
	}
	if deps.Spawn == nil {
		deps.Spawn = func(fn func()) { go fn() }
	}
	return &Dispatcher{deps: deps, subs: make(map[int]chan StateUpdate)}
}

// Current returns the state of the request that owns the results.
func (d *Dispatcher) Current() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Subscribe returns a channel of state updates and a func that closes it.
// Slow subscribers miss updates rather than stall the dispatcher.
func (d *Dispatcher) Subscribe() (<-chan StateUpdate, func()) {
	ch := make(chan StateUpdate, 16)
	d.mu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = ch
	d.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subs, id)
			d.mu.Unlock()
			close(ch)
		})
	}
}

func (d *Dispatcher) publish(u StateUpdate) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ch := range d.subs {
		select {
		case ch <- u:
		default:
		}
	}
}

func (d *Dispatcher) isCurrent(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq == seq
}

// Dispatch starts intent. A blank term for an intent that needs one shows a prompt and
// returns an error wrapping [shared.ErrEmptyQuery] without touching the network.
func (d *Dispatcher) Dispatch(ctx context.Context, intent Intent) (*Request, error) {
	var req *Request
	var err error
	d.deps.Page.Update(func(root *dom.Node) {
		req, err = d.dispatchIn(ctx, root, intent)
	})
	return req, err
}

// dispatchIn is Dispatch for callers already holding the page lock.
func (d *Dispatcher) dispatchIn(ctx context.Context, root *dom.Node, intent Intent) (*Request, error) {
	r := d.deps.Renderer

	if intent.needsTerm() && strings.TrimSpace(intent.Term) == "" {
		r.ShowStatus(root, intent.prompt())
		return nil, fmt.Errorf("%w: %s", shared.ErrEmptyQuery, intent.prompt())
	}

	var token string
	if intent.Kind == PersonalIntent {
		s := d.deps.Session.Session()
		if s == nil {
			r.ShowStatus(root, "Please log in to see personalized recommendations.")
			return nil, fmt.Errorf("%w: personal recommendations need a session", shared.ErrNotAuthenticated)
		}
		token = s.AccessToken
	}
	r.ClearStatus(root)

	ctx, cancel := context.WithTimeout(ctx, d.deps.Timeout)

	d.mu.Lock()
	d.seq++
	if d.cancel != nil {
		d.cancel()
	}
	d.cancel = cancel
	st := State{Seq: d.seq, Intent: intent, Status: Loading}
	d.current = st
	d.mu.Unlock()

	req := &Request{Seq: st.Seq, Intent: intent, done: make(chan struct{}), state: st}

	r.RenderLoading(root, intent.loadingText())
	d.publish(StateUpdate{State: st, Message: intent.loadingText()})
	d.deps.Logger.Debug("dispatching", "seq", st.Seq, "intent", intent)

	d.deps.Spawn(func() { d.run(ctx, cancel, req, token) })
	return req, nil
}

func (d *Dispatcher) run(ctx context.Context, cancel context.CancelFunc, req *Request, token string) {
	defer cancel()

	render, fetchErr := d.fetch(ctx, req, token)

	var final State
	stale := false
	d.deps.Page.Update(func(root *dom.Node) {
		if !d.isCurrent(req.Seq) {
			stale = true
			final = State{Seq: req.Seq, Intent: req.Intent, Status: Failed, Err: ErrSuperseded}
			return
		}
		final = d.resolveIn(root, req, render, fetchErr)
		d.mu.Lock()
		d.current = final
		d.mu.Unlock()
	})

	if stale {
		d.deps.Logger.Debug("dropping stale response", "seq", req.Seq, "intent", req.Intent)
		req.finish(final)
		return
	}

	if final.Status == Failed {
		d.deps.Logger.Warn("request failed", "seq", req.Seq, "intent", req.Intent, "error", final.Err)
	} else {
		d.deps.Logger.Debug("request resolved", "seq", req.Seq, "intent", req.Intent, "count", final.Count)
	}
	d.publish(StateUpdate{State: final, Message: final.String()})
	req.finish(final)

	if final.Status == Success && d.deps.AfterSuccess != nil {
		d.deps.Spawn(func() {
			if d.deps.ScrollDelay > 0 {
				time.Sleep(d.deps.ScrollDelay)
			}
			d.deps.AfterSuccess(final)
		})
	}
}

func (d *Dispatcher) resolveIn(root *dom.Node, req *Request, render renderFunc, err error) State {
	r := d.deps.Renderer
	st := State{Seq: req.Seq, Intent: req.Intent}

	count := 0
	if err == nil {
		count, err = render(root)
	}
	if err != nil {
		title, body := errorCopy(req.Intent, err)
		r.RenderMessage(root, MessageError, title, body)
		st.Status, st.Err = Failed, err
		return st
	}

	if count == 0 {
		title, body := emptyCopy(req.Intent)
		r.RenderMessage(root, MessageNoResults, title, body)
	}
	st.Status, st.Count = Success, count
	return st
}

// fetch performs the single backend call for the request's intent plus any title hydration.
func (d *Dispatcher) fetch(ctx context.Context, req *Request, token string) (renderFunc, error) {
	c, r := d.deps.Catalog, d.deps.Renderer
	intent := req.Intent

	switch intent.Kind {
	case FreeTextIntent, GenreIntent:
		query := intent.Term
		if intent.Kind == GenreIntent {
			query = intent.Term + " movies"
		}
		movies, err := c.Search(ctx, query)
		if err != nil {
			return nil, err
		}
		return func(root *dom.Node) (int, error) { return r.RenderSummaries(root, movies) }, nil

	case TrendingIntent, RecentIntent:
		get := c.Trending
		if intent.Kind == RecentIntent {
			get = c.Recent
		}
		fragment, err := get(ctx)
		if err != nil {
			return nil, err
		}
		return func(root *dom.Node) (int, error) { return r.RenderFragment(root, fragment) }, nil

	case MoodIntent:
		res, err := c.Mood(ctx, intent.Term)
		if err != nil {
			return nil, err
		}
		if len(res.Titles) == 0 && res.Fragment != "" {
			return func(root *dom.Node) (int, error) { return r.RenderFragment(root, res.Fragment) }, nil
		}
		movies, err := d.hydrate(ctx, req, res.Titles)
		if err != nil {
			return nil, err
		}
		return func(root *dom.Node) (int, error) { return r.RenderDetails(root, movies, intent.Term) }, nil

	case PersonalIntent:
		p, err := c.Personal(ctx, token)
		if err != nil {
			return nil, err
		}
		movies, err := d.hydrate(ctx, req, p.Recommendations)
		if err != nil {
			return nil, err
		}
		liked, viewed := personalStats(p)
		return func(root *dom.Node) (int, error) {
			r.RenderStats(root, liked, viewed)
			return r.RenderDetails(root, movies, "")
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown intent %d", shared.ErrInvalidArgument, intent.Kind)
	}
}

// hydrate looks up full details for titles, forwarding progress while the request is current.
func (d *Dispatcher) hydrate(ctx context.Context, req *Request, titles []string) ([]models.MovieDetail, error) {
	prog := make(chan tasks.ProgressUpdate, len(titles)+2)
	forwarded := make(chan struct{})
	loading := State{Seq: req.Seq, Intent: req.Intent, Status: Loading}
	go func() {
		defer close(forwarded)
		for p := range prog {
			if d.isCurrent(req.Seq) {
				d.publish(loadingUpdate(loading, p))
			}
		}
	}()

	res, err := tasks.Hydrate(ctx, prog, d.deps.Catalog, titles, d.deps.Hydrate)
	close(prog)
	<-forwarded
	if err != nil {
		return nil, err
	}
	for _, f := range res.Failed {
		d.deps.Logger.Debug("title skipped", "title", f.Title, "error", f.Error)
	}
	return res.Movies, nil
}

// personalStats returns the liked count reported by the backend and the size of the history.
func personalStats(p *models.PersonalRecommendations) (liked, viewed int) {
	return p.LikedCount, len(p.UserHistory)
}

func emptyCopy(i Intent) (title, body string) {
	switch i.Kind {
	case FreeTextIntent:
		return fmt.Sprintf("No movies found for %q", i.Term), "Try a different search term."
	case GenreIntent:
		return fmt.Sprintf("No movies found for %q", i.Term), "Try another genre."
	case MoodIntent:
		return fmt.Sprintf("No recommendations found for %q", i.Term), "Try describing your mood differently."
	case TrendingIntent:
		return "No trending movies right now", "Please check back later."
	case RecentIntent:
		return "No recent releases right now", "Please check back later."
	case PersonalIntent:
		return "No recommendations yet", "Like or watchlist a few movies to get personalized picks."
	default:
		return "No results", ""
	}
}

func errorCopy(i Intent, err error) (title, body string) {
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		return "Please log in again", "Your session has expired."
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out", "Please try again."
	case errors.Is(err, shared.ErrRequestRejected):
		body = "The server could not complete the request. Please try again."
		var rejected *services.RejectedError
		if errors.As(err, &rejected) && rejected.Message != "" {
			body = rejected.Message
		}
		return failureTitle(i), body
	}

	if i.Kind == MoodIntent {
		return "Something went wrong", "Please check your connection and try again."
	}
	return failureTitle(i), "Please check your connection and try again."
}

func failureTitle(i Intent) string {
	switch i.Kind {
	case MoodIntent:
		return "Error getting recommendations"
	case PersonalIntent:
		return "Error loading recommendations"
	default:
		return "Error loading movies"
	}
}
