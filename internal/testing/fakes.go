package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/services"
	"github.com/desertthunder/flickx/internal/shared"
)

// FakeAuth is an in-memory [services.AuthProvider].
//
// Like the hosted provider, a successful sign-in both returns the session and notifies subscribers.
type FakeAuth struct {
	mu      sync.Mutex
	session *models.Session
	gate    chan struct{}
	subs    map[int]func(services.AuthChange)
	nextSub int

	Accounts   map[string]string
	Codes      map[string]string // confirmation code -> email
	SignUpErr  error
	SignOutErr error

	SignInCalls  int
	SignUpCalls  int
	SignOutCalls int
}

func NewFakeAuth() *FakeAuth {
	return &FakeAuth{
		Accounts: make(map[string]string),
		Codes:    make(map[string]string),
		subs:     make(map[int]func(services.AuthChange)),
	}
}

// SessionFor builds the session FakeAuth issues for email.
func SessionFor(email string) *models.Session {
	return &models.Session{UserID: "user-" + email, Email: email, AccessToken: "token-" + email, RefreshToken: "refresh-" + email}
}

// SetSession replaces the current session without notifying.
func (f *FakeAuth) SetSession(s *models.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = s
}

func (f *FakeAuth) GetSession(ctx context.Context) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, nil
}

func (f *FakeAuth) SignUp(ctx context.Context, email, password string, profile models.Profile) error {
	f.mu.Lock()
	f.SignUpCalls++
	err := f.SignUpErr
	f.mu.Unlock()
	return err
}

// BlockSignIn holds password sign-ins until the returned release func runs.
func (f *FakeAuth) BlockSignIn() (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gate = ch
	f.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (f *FakeAuth) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	f.mu.Lock()
	f.SignInCalls++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	want, ok := f.Accounts[email]
	if !ok || want != password {
		f.mu.Unlock()
		return nil, &services.AuthError{Status: 400, Message: "Invalid login credentials"}
	}
	s := SessionFor(email)
	f.session = s
	f.mu.Unlock()

	f.Emit(services.AuthChange{Event: services.SignedIn, Session: s})
	return s, nil
}

// ExchangeCode signs in the account registered under code in Codes.
func (f *FakeAuth) ExchangeCode(ctx context.Context, code string) (*models.Session, error) {
	f.mu.Lock()
	email, ok := f.Codes[code]
	if !ok {
		f.mu.Unlock()
		return nil, &services.AuthError{Status: 403, Message: "Email link is invalid or has expired"}
	}
	delete(f.Codes, code)
	s := SessionFor(email)
	f.session = s
	f.mu.Unlock()

	f.Emit(services.AuthChange{Event: services.SignedIn, Session: s})
	return s, nil
}

func (f *FakeAuth) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.SignOutCalls++
	f.session = nil
	err := f.SignOutErr
	f.mu.Unlock()

	f.Emit(services.AuthChange{Event: services.SignedOut})
	return err
}

func (f *FakeAuth) OnAuthStateChange(fn func(services.AuthChange)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

// Emit pushes a notification to every subscriber.
func (f *FakeAuth) Emit(change services.AuthChange) {
	f.mu.Lock()
	fns := make([]func(services.AuthChange), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}

// FakeCatalog is a scripted movie catalog. Calls are keyed "method:term", e.g. "search:comedy movies".
type FakeCatalog struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	calls map[string]int

	Movies      map[string][]models.MovieSummary
	Details     map[string]*models.MovieDetail
	Fragments   map[string]string
	MoodResults map[string]*services.MoodResult
	Personals   map[string]*models.PersonalRecommendations
	Errors      map[string]error
	Tracked     []models.Interaction
	Feedback    []models.Feedback
}

func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{
		gates:       make(map[string]chan struct{}),
		calls:       make(map[string]int),
		Movies:      make(map[string][]models.MovieSummary),
		Details:     make(map[string]*models.MovieDetail),
		Fragments:   make(map[string]string),
		MoodResults: make(map[string]*services.MoodResult),
		Personals:   make(map[string]*models.PersonalRecommendations),
		Errors:      make(map[string]error),
	}
}

// Block holds calls with key until the returned release func runs.
func (f *FakeCatalog) Block(key string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[key] = ch
	f.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Calls returns how many times key was requested.
func (f *FakeCatalog) Calls(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

// TotalCalls counts every request made.
func (f *FakeCatalog) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// TrackedRecords returns a copy of every interaction received.
func (f *FakeCatalog) TrackedRecords() []models.Interaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Interaction(nil), f.Tracked...)
}

func (f *FakeCatalog) enter(ctx context.Context, key string) error {
	f.mu.Lock()
	f.calls[key]++
	gate := f.gates[key]
	err := f.Errors[key]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *FakeCatalog) Search(ctx context.Context, query string) ([]models.MovieSummary, error) {
	if err := f.enter(ctx, "search:"+query); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.MovieSummary{}, f.Movies[query]...), nil
}

func (f *FakeCatalog) LookupTitle(ctx context.Context, title string) (*models.MovieDetail, error) {
	if err := f.enter(ctx, "title:"+title); err != nil {
		return nil, err
	}
	return f.detail(title)
}

func (f *FakeCatalog) Detail(ctx context.Context, imdbID string) (*models.MovieDetail, error) {
	if err := f.enter(ctx, "detail:"+imdbID); err != nil {
		return nil, err
	}
	return f.detail(imdbID)
}

func (f *FakeCatalog) detail(key string) (*models.MovieDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.Details[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrMovieNotFound, key)
	}
	copied := *d
	return &copied, nil
}

func (f *FakeCatalog) Trending(ctx context.Context) (string, error) {
	return f.fragment(ctx, "trending")
}

func (f *FakeCatalog) Recent(ctx context.Context) (string, error) {
	return f.fragment(ctx, "recent")
}

func (f *FakeCatalog) fragment(ctx context.Context, key string) (string, error) {
	if err := f.enter(ctx, key+":"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Fragments[key], nil
}

func (f *FakeCatalog) Mood(ctx context.Context, mood string) (*services.MoodResult, error) {
	if err := f.enter(ctx, "mood:"+mood); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.MoodResults[mood]; ok {
		return r, nil
	}
	return &services.MoodResult{}, nil
}

func (f *FakeCatalog) Personal(ctx context.Context, token string) (*models.PersonalRecommendations, error) {
	if err := f.enter(ctx, "personal:"+token); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.Personals[token]; ok {
		return p, nil
	}
	return &models.PersonalRecommendations{}, nil
}

func (f *FakeCatalog) Track(ctx context.Context, token string, rec models.Interaction) error {
	if err := f.enter(ctx, "track:"+rec.IMDbID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tracked = append(f.Tracked, rec)
	return nil
}

func (f *FakeCatalog) SubmitFeedback(ctx context.Context, token string, fb models.Feedback) (string, error) {
	if err := f.enter(ctx, "feedback:"+fb.Email); err != nil {
		return "", err
	}
	if err := fb.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Feedback = append(f.Feedback, fb)
	return "Feedback submitted successfully!", nil
}
