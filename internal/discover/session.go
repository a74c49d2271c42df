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
)

// FormMode selects which form the auth modal shows.
type FormMode int

const (
	Login FormMode = iota
	SignUp
)

func (m FormMode) String() string {
	if m == SignUp {
		return "signup"
	}
	return "login"
}

func (m FormMode) title() string {
	if m == SignUp {
		return "Sign Up"
	}
	return "Login"
}

func (m FormMode) switchText() string {
	if m == SignUp {
		return "Already have an account?"
	}
	return "Don't have an account?"
}

func (m FormMode) other() FormMode {
	if m == SignUp {
		return Login
	}
	return SignUp
}

// Auth messages shown in #auth-message.
const (
	MsgLoginSuccess  = "Login successful!"
	MsgLogoutSuccess = "Logged out successfully!"
	MsgSignupSuccess = "Registration successful! Please check your email for verification."
	msgBusy          = "Please wait..."
)

// SessionDeps are the collaborators of a [SessionController].
type SessionDeps struct {
	Page       *Page
	Auth       services.AuthProvider
	Logger     *log.Logger
	Timeout    time.Duration // per auth call
	MessageTTL time.Duration // how long #auth-message stays up
	Spawn      func(func())

	// Personalize refreshes the personal view for s. It runs outside the page lock.
	Personalize func(ctx context.Context, s *models.Session) error
	// SignedOut runs after the session goes from present to absent.
	SignedOut func()
}

// SessionController mirrors the provider session into the page and runs the auth forms.
//
// The provider is the only source of sessions. The controller keeps the latest one it was
// told about and never builds one itself.
type SessionController struct {
	deps SessionDeps

	mu          sync.Mutex
	session     *models.Session
	mode        FormMode
	busy        bool
	unsubscribe func()
	msgGen      uint64
	msgTimer    *time.Timer
}

// NewSessionController applies defaults to deps and creates a signed-out controller.
func NewSessionController(deps SessionDeps) *SessionController {
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	if deps.Timeout <= 0 {
		deps.Timeout = 15 * time.Second
	}
	if deps.MessageTTL < 0 {
		deps.MessageTTL = 0
	}
	if deps.Spawn == nil {
		deps.Spawn = func(fn func()) { go fn() }
	}
	return &SessionController{deps: deps}
}

// Init subscribes to provider notifications and restores any existing session.
//
// A restore failure leaves the controller signed out; it is logged, not returned.
func (c *SessionController) Init(ctx context.Context) {
	unsub := c.deps.Auth.OnAuthStateChange(c.OnProviderSessionChange)
	c.mu.Lock()
	c.unsubscribe = unsub
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.deps.Timeout)
	defer cancel()

	s, err := c.deps.Auth.GetSession(ctx)
	if err != nil {
		c.deps.Logger.Warn("failed to restore session", "error", err)
		s = nil
	}
	c.apply(s)
	c.deps.Page.Update(func(root *dom.Node) {
		c.projectForm(root)
		c.project(root)
	})
}

// Restore installs the provider's current session without subscribing or refreshing the
// personal view. One-shot hosts that dispatch Personal themselves use it instead of [SessionController.Init].
func (c *SessionController) Restore(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.deps.Timeout)
	defer cancel()

	s, err := c.deps.Auth.GetSession(ctx)
	if err != nil {
		return err
	}
	c.install(s)
	return nil
}

// Close unsubscribes from the provider and cancels a pending message timer.
func (c *SessionController) Close() {
	c.mu.Lock()
	unsub := c.unsubscribe
	c.unsubscribe = nil
	if c.msgTimer != nil {
		c.msgTimer.Stop()
	}
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Session returns the current session, nil when signed out.
func (c *SessionController) Session() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *SessionController) SignedIn() bool { return c.Session() != nil }

func (c *SessionController) Mode() FormMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// OnProviderSessionChange applies a provider notification. Repeated notifications carrying
// the same token change nothing.
func (c *SessionController) OnProviderSessionChange(change services.AuthChange) {
	c.deps.Logger.Debug("auth state changed", "event", change.Event)
	c.apply(change.Session)
}

func sameSession(a, b *models.Session) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.AccessToken == b.AccessToken
}

// install replaces the session and projects it. It reports the previous session and whether
// anything changed.
func (c *SessionController) install(s *models.Session) (*models.Session, bool) {
	c.mu.Lock()
	prev := c.session
	if sameSession(prev, s) {
		c.mu.Unlock()
		return prev, false
	}
	c.session = s
	c.mu.Unlock()

	c.deps.Page.Update(c.project)
	return prev, true
}

func (c *SessionController) apply(s *models.Session) {
	prev, changed := c.install(s)
	if !changed {
		return
	}

	switch {
	case s != nil && (prev == nil || prev.UserID != s.UserID):
		c.deps.Logger.Info("signed in", "email", s.Email)
		c.deps.Spawn(func() {
			if err := c.refresh(s); err != nil {
				c.deps.Logger.Warn("failed to refresh personal view", "error", err)
			}
		})
	case s == nil && prev != nil:
		c.deps.Logger.Info("signed out", "email", prev.Email)
		if c.deps.SignedOut != nil {
			c.deps.Spawn(c.deps.SignedOut)
		}
	}
}

// project renders the session into the header, personal tab and stats. It reads the latest
// session so stale projections can never win.
func (c *SessionController) project(root *dom.Node) {
	s := c.Session()

	authButtons := byID(root, IDAuthButtons)
	userInfo := byID(root, IDUserInfo)
	personalTab := byID(root, IDPersonalTab)

	if s != nil {
		authButtons.Hide()
		userInfo.Show()
		byID(root, IDUserEmail).SetText(s.Email)
		personalTab.Show()
		return
	}

	authButtons.Show()
	userInfo.Hide()
	byID(root, IDUserEmail).ReplaceChildren()
	personalTab.Hide()
	byID(root, IDPersonalStats).ReplaceChildren()
}

// RefreshPersonalView reloads the personal view for the current session.
//
// When the backend rejects the session it is dropped locally and revoked in the background.
func (c *SessionController) RefreshPersonalView(ctx context.Context) error {
	s := c.Session()
	if s == nil {
		return shared.ErrNotAuthenticated
	}
	return c.refreshWith(ctx, s)
}

func (c *SessionController) refresh(s *models.Session) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.deps.Timeout)
	defer cancel()
	return c.refreshWith(ctx, s)
}

func (c *SessionController) refreshWith(ctx context.Context, s *models.Session) error {
	if c.deps.Personalize == nil {
		return nil
	}
	err := c.deps.Personalize(ctx, s)
	if errors.Is(err, shared.ErrNotAuthenticated) {
		c.deps.Logger.Warn("session rejected by backend, signing out", "email", s.Email)
		c.invalidate(s)
	}
	return err
}

// invalidate drops s if it is still current and revokes it with the provider.
func (c *SessionController) invalidate(s *models.Session) {
	if !sameSession(c.Session(), s) {
		return
	}
	c.apply(nil)
	c.deps.Spawn(func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.deps.Timeout)
		defer cancel()
		if err := c.deps.Auth.SignOut(ctx); err != nil {
			c.deps.Logger.Warn("failed to revoke session", "error", err)
		}
	})
}

// SignUp registers an account. Sign-up does not sign in; the provider wants the address confirmed first.
func (c *SessionController) SignUp(ctx context.Context, email, password string, profile models.Profile) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		err := fmt.Errorf("%w: email and password are required", shared.ErrMissingCredentials)
		c.showMessage(err.Error(), false)
		return err
	}

	c.setBusy(true)
	ctx, cancel := context.WithTimeout(ctx, c.deps.Timeout)
	err := c.deps.Auth.SignUp(ctx, email, password, profile)
	cancel()
	c.setBusy(false)

	if err != nil {
		c.deps.Logger.Warn("sign up failed", "email", email, "error", err)
		c.showMessage(err.Error(), false)
		return err
	}

	c.HideAuthModal()
	c.showMessage(MsgSignupSuccess, true)
	return nil
}

// SignIn exchanges credentials for a session. Provider error text is shown as is.
func (c *SessionController) SignIn(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		err := fmt.Errorf("%w: email and password are required", shared.ErrMissingCredentials)
		c.showMessage(err.Error(), false)
		return err
	}

	c.setBusy(true)
	ctx, cancel := context.WithTimeout(ctx, c.deps.Timeout)
	s, err := c.deps.Auth.SignInWithPassword(ctx, email, password)
	cancel()
	c.setBusy(false)

	if err != nil {
		c.deps.Logger.Warn("sign in failed", "email", email, "error", err)
		c.showMessage(err.Error(), false)
		return err
	}

	c.apply(s)
	c.HideAuthModal()
	c.showMessage(MsgLoginSuccess, true)
	return nil
}

// SignOut revokes the session. The local session is cleared even when the provider call fails;
// that failure is logged and returned.
func (c *SessionController) SignOut(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.deps.Timeout)
	err := c.deps.Auth.SignOut(ctx)
	cancel()
	if err != nil {
		c.deps.Logger.Warn("remote sign out failed", "error", err)
	}

	c.apply(nil)
	c.showMessage(MsgLogoutSuccess, true)
	return err
}

// Submit sends the auth form in its current mode.
func (c *SessionController) Submit(ctx context.Context) error {
	var email, password string
	var profile models.Profile
	c.deps.Page.View(func(root *dom.Node) {
		email, password, profile = readForm(root)
	})

	if c.Mode() == SignUp {
		return c.SignUp(ctx, email, password, profile)
	}
	return c.SignIn(ctx, email, password)
}

func readForm(root *dom.Node) (email, password string, profile models.Profile) {
	email = byID(root, IDEmail).Attr("value")
	password = byID(root, IDPassword).Attr("value")
	profile = models.Profile{
		FullName: strings.TrimSpace(byID(root, IDFullName).Attr("value")),
		Username: strings.TrimSpace(byID(root, IDUsername).Attr("value")),
	}
	return
}

// ShowAuthModal opens the auth modal in mode.
func (c *SessionController) ShowAuthModal(mode FormMode) {
	c.deps.Page.Update(func(root *dom.Node) { c.showModalIn(root, mode) })
}

// HideAuthModal closes the auth modal and resets the form to a blank login.
func (c *SessionController) HideAuthModal() {
	c.deps.Page.Update(c.hideModalIn)
}

// SwitchMode flips the form between login and sign-up.
func (c *SessionController) SwitchMode() {
	c.deps.Page.Update(c.switchModeIn)
}

func (c *SessionController) showModalIn(root *dom.Node, mode FormMode) {
	c.setMode(mode)
	c.projectForm(root)
	byID(root, IDAuthModal).Show()
}

func (c *SessionController) hideModalIn(root *dom.Node) {
	byID(root, IDAuthModal).Hide()
	for _, id := range []string{IDEmail, IDPassword, IDFullName, IDUsername} {
		byID(root, id).SetAttr("value", "")
	}
	c.setMode(Login)
	c.projectForm(root)
}

func (c *SessionController) switchModeIn(root *dom.Node) {
	c.setMode(c.Mode().other())
	c.projectForm(root)
}

func (c *SessionController) setMode(m FormMode) {
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
}

func (c *SessionController) projectForm(root *dom.Node) {
	c.mu.Lock()
	mode, busy := c.mode, c.busy
	c.mu.Unlock()

	byID(root, IDAuthModal).SetAttr("data-mode", mode.String())
	byID(root, IDAuthTitle).SetText(mode.title())
	byID(root, IDAuthSwitchText).SetText(mode.switchText())
	byID(root, IDAuthSwitch).SetText(mode.other().title())

	if mode == SignUp {
		byID(root, IDSignupFields).Show()
	} else {
		byID(root, IDSignupFields).Hide()
	}

	submit := byID(root, IDAuthSubmit)
	if busy {
		submit.SetText(msgBusy)
		submit.SetAttr("disabled", "")
	} else {
		submit.SetText(mode.title())
		submit.RemoveAttr("disabled")
	}
}

func (c *SessionController) setBusy(busy bool) {
	c.mu.Lock()
	c.busy = busy
	c.mu.Unlock()
	c.deps.Page.Update(c.projectForm)
}

// showMessage shows text in #auth-message and hides it after the TTL unless a newer message replaced it.
// A zero TTL leaves it up.
func (c *SessionController) showMessage(text string, success bool) {
	c.mu.Lock()
	c.msgGen++
	gen := c.msgGen
	if c.msgTimer != nil {
		c.msgTimer.Stop()
		c.msgTimer = nil
	}
	if c.deps.MessageTTL > 0 {
		c.msgTimer = time.AfterFunc(c.deps.MessageTTL, func() {
			c.mu.Lock()
			current := c.msgGen == gen
			c.mu.Unlock()
			if current {
				c.deps.Page.Update(func(root *dom.Node) { byID(root, IDAuthMessage).Hide() })
			}
		})
	}
	c.mu.Unlock()

	kind := "error"
	if success {
		kind = "success"
	}
	c.deps.Page.Update(func(root *dom.Node) {
		msg := byID(root, IDAuthMessage)
		msg.SetClasses("auth-message", kind)
		msg.SetText(text)
		msg.Show()
	})
}

// Bind attaches the header and auth modal listeners. Call it once, inside [Page.Update].
func (c *SessionController) Bind(root *dom.Node) {
	byID(root, IDLoginButton).On("click", func(*dom.Event) { c.showModalIn(root, Login) })
	byID(root, IDSignupButton).On("click", func(*dom.Event) { c.showModalIn(root, SignUp) })
	byID(root, IDCloseAuthModal).On("click", func(*dom.Event) { c.hideModalIn(root) })
	byID(root, IDAuthSwitch).On("click", func(*dom.Event) { c.switchModeIn(root) })

	modal := byID(root, IDAuthModal)
	modal.On("click", func(ev *dom.Event) {
		if ev.Target == modal {
			c.hideModalIn(root)
		}
	})

	submit := func(ev *dom.Event) {
		ev.StopPropagation()
		if !c.claimBusy() {
			return
		}
		c.projectForm(root)
		c.deps.Spawn(func() {
			defer c.setBusy(false)
			if err := c.Submit(context.Background()); err != nil {
				c.deps.Logger.Debug("auth form rejected", "error", err)
			}
		})
	}
	byID(root, IDAuthSubmit).On("click", submit)
	byID(root, IDAuthForm).On("submit", submit)

	byID(root, IDLogoutButton).On("click", func(*dom.Event) {
		c.deps.Spawn(func() {
			if err := c.SignOut(context.Background()); err != nil {
				c.deps.Logger.Debug("sign out finished with error", "error", err)
			}
		})
	})
}

// claimBusy marks the form busy and reports whether it was idle.
func (c *SessionController) claimBusy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	return true
}
