package discover

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flickx/internal/models"
	"golang.org/x/time/rate"
)

// InteractionSink accepts interaction records on behalf of a signed-in user.
type InteractionSink interface {
	Track(ctx context.Context, token string, rec models.Interaction) error
}

// SessionSource exposes the current session, nil when signed out.
type SessionSource interface {
	Session() *models.Session
}

// Tracker sends interaction records in the background. Records are sent once and never retried.
type Tracker struct {
	sink    InteractionSink
	session SessionSource
	limiter *rate.Limiter
	timeout time.Duration
	logger  *log.Logger
	wg      sync.WaitGroup
}

// NewTracker creates a tracker sending at most rps records per second.
func NewTracker(sink InteractionSink, session SessionSource, rps float64, timeout time.Duration, logger *log.Logger) *Tracker {
	if rps <= 0 {
		rps = 5
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Tracker{
		sink:    sink,
		session: session,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		timeout: timeout,
		logger:  logger,
	}
}

// Record queues an interaction for ref. It reports false, and sends nothing, when signed out.
//
// Never blocks, so it is safe to call from a listener.
func (t *Tracker) Record(ref CardRef, kind models.InteractionKind) bool {
	s := t.session.Session()
	if s == nil || s.AccessToken == "" {
		t.logger.Debug("interaction dropped, signed out", "kind", kind, "title", ref.Title)
		return false
	}

	rec := models.Interaction{MovieTitle: ref.Title, IMDbID: ref.IMDbID, Kind: kind, MoodContext: ref.Mood}
	token := s.AccessToken

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()

		if err := t.limiter.Wait(ctx); err != nil {
			t.logger.Warn("interaction dropped", "kind", rec.Kind, "title", rec.MovieTitle, "error", err)
			return
		}
		if err := t.sink.Track(ctx, token, rec); err != nil {
			t.logger.Warn("failed to track interaction", "kind", rec.Kind, "title", rec.MovieTitle, "error", err)
			return
		}
		t.logger.Debug("interaction tracked", "kind", rec.Kind, "title", rec.MovieTitle)
	}()
	return true
}

// Wait blocks until every queued record has been sent or dropped.
func (t *Tracker) Wait() {
	t.wg.Wait()
}
