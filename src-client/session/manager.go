package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"kiosco/src-client/guard"
	"kiosco/src-client/model"
	"kiosco/src-client/token"
	"kiosco/src-client/utils"
)

type State string

const (
	STATE_UNAUTHENTICATED = State("unauthenticated")
	STATE_AUTHENTICATING  = State("authenticating")
	STATE_AUTHENTICATED   = State("authenticated")
)

// Session is the authenticated identity and its validity window. Sessions
// are replaced whole, never patched.
type Session struct {
	UserID    int64
	Username  string
	Role      token.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
	RawToken  string
}

func (s *Session) Valid(now time.Time) bool {
	return s != nil && now.Before(s.ExpiresAt)
}

type Credentials struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// Hooks are the side-effect outlets the host UI plugs in. Any nil hook is
// a no-op.
type Hooks struct {
	// route the host UI somewhere (logout, expiry)
	Navigate func(path string)
	// the session is about to expire; remaining time attached
	OnExpiryWarning func(remaining time.Duration)
	// the session just expired while active
	OnSessionExpired func()
}

// Manager owns the authentication state of the running terminal. All state
// lives behind one mutex; timers carry a generation stamp so a cancelled
// timer can never tear down a successor session.
type Manager struct {
	as    *utils.AppState
	hooks Hooks

	mu         sync.Mutex
	state      State
	session    *Session
	lastErr    error
	expired    bool
	restored   bool
	generation uint64

	warningTimer *time.Timer
	expiryTimer  *time.Timer

	now func() time.Time
}

func NewManager(as *utils.AppState, hooks Hooks) *Manager {
	return &Manager{
		as:    as,
		hooks: hooks,
		state: STATE_UNAUTHENTICATED,
		now:   time.Now,
	}
}

type loginRespBody struct {
	Token   string `json:"token"`
	Usuario struct {
		ID      int64  `json:"id"`
		Usuario string `json:"usuario"`
		Rol     string `json:"rol"`
	} `json:"usuario"`
	Message string `json:"message"`
}

// Login sends the credentials to the backend, decodes the returned token
// and arms the warning/expiry timers. The returned error is always one of
// ErrInvalidCredentials, ErrNetwork or ErrTokenDecode.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*Session, error) {
	m.mu.Lock()
	if m.state == STATE_AUTHENTICATING {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: login already in progress", ErrNetwork)
	}
	// entering Authenticating exits any authenticated state: timers off,
	// session gone, whatever the attempt's outcome
	hadSession := m.session != nil
	m.cancelTimersLocked()
	m.session = nil
	m.state = STATE_AUTHENTICATING
	m.lastErr = nil
	m.expired = false
	m.mu.Unlock()

	if hadSession {
		// the old token must not outlive the session it belonged to
		if err := model.ClearToken(ctx, m.as.BunDB); err != nil {
			slog.Warn("can't clear persisted token before re-login", "error", err)
		}
	}

	fail := func(err error) (*Session, error) {
		m.mu.Lock()
		m.state = STATE_UNAUTHENTICATED
		m.lastErr = err
		m.mu.Unlock()
		return nil, err
	}

	reqBody, err := json.Marshal(creds)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		m.as.Config.GetApiBaseUrl()+"/admin/loginCheck",
		bytes.NewReader(reqBody),
	)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.as.HttpClient.Do(req)
	if err != nil {
		slog.Warn("login request failed", "error", err)
		return fail(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	defer resp.Body.Close()

	var respBody loginRespBody
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		if resp.StatusCode == http.StatusOK {
			return fail(fmt.Errorf("%w: %v", ErrNetwork, err))
		}
		respBody = loginRespBody{}
	}
	if resp.StatusCode != http.StatusOK {
		slog.Debug("login rejected", "status", resp.StatusCode, "message", respBody.Message)
		return fail(fmt.Errorf("%w: %s", ErrInvalidCredentials, respBody.Message))
	}

	claims, err := token.Decode(respBody.Token)
	if err != nil {
		slog.Error("backend returned an undecodable token", "error", err)
		return fail(fmt.Errorf("%w: %v", ErrTokenDecode, err))
	}
	// an expired token never produces a valid session, not even briefly
	if claims.Expired(m.now()) {
		slog.Error("backend returned an already-expired token", "exp", claims.ExpiresAt.Time)
		return fail(fmt.Errorf("%w: token already expired", ErrTokenDecode))
	}

	sess := &Session{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Role:      claims.Role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		RawToken:  respBody.Token,
	}

	if err := model.SaveToken(ctx, m.as.BunDB, respBody.Token); err != nil {
		// the session still works for this run; only re-hydration is lost
		slog.Error("can't persist token", "error", err)
	}

	m.mu.Lock()
	m.cancelTimersLocked()
	m.session = sess
	m.state = STATE_AUTHENTICATED
	m.armTimersLocked()
	m.mu.Unlock()

	slog.Info("logged in", "user", sess.Username, "role", sess.Role, "expires_at", sess.ExpiresAt)
	return sess, nil
}

// Logout clears the persisted token, cancels every armed timer and routes
// the host back to the login page. It never fails observably.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.cancelTimersLocked()
	m.session = nil
	m.state = STATE_UNAUTHENTICATED
	m.lastErr = nil
	m.expired = false
	m.mu.Unlock()

	if err := model.ClearToken(ctx, m.as.BunDB); err != nil {
		slog.Warn("can't clear persisted token", "error", err)
	}

	if m.hooks.Navigate != nil {
		m.hooks.Navigate(guard.LoginPath)
	}
	slog.Info("logged out")
}

// RestoreSession re-hydrates a session from the persisted token at process
// start. Expired or undecodable tokens clear storage and leave the manager
// unauthenticated, silently. Calling it again after the first decision is
// a no-op.
func (m *Manager) RestoreSession(ctx context.Context) {
	m.mu.Lock()
	if m.restored || m.state != STATE_UNAUTHENTICATED {
		m.mu.Unlock()
		return
	}
	m.restored = true
	m.mu.Unlock()

	raw, err := model.LoadToken(ctx, m.as.BunDB)
	if err != nil {
		slog.Error("can't read persisted token", "error", err)
		return
	}
	if raw == "" {
		slog.Debug("no persisted token, starting unauthenticated")
		return
	}

	claims, err := token.Decode(raw)
	if err != nil || claims.Expired(m.now()) {
		// stale or unreadable, either way it's gone
		if err := model.ClearToken(ctx, m.as.BunDB); err != nil {
			slog.Warn("can't clear stale token", "error", err)
		}
		slog.Info("persisted token unusable, starting unauthenticated", "error", err)
		return
	}

	sess := &Session{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Role:      claims.Role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		RawToken:  raw,
	}

	m.mu.Lock()
	m.session = sess
	m.state = STATE_AUTHENTICATED
	m.armTimersLocked()
	m.mu.Unlock()

	slog.Info("session restored", "user", sess.Username, "role", sess.Role, "expires_at", sess.ExpiresAt)
}

// ClearError resets only the last-error field.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = nil
}

func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == STATE_AUTHENTICATED && m.session.Valid(m.now())
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentUser returns a copy of the active session, or nil.
func (m *Manager) CurrentUser() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	sessCopy := *m.session
	return &sessCopy
}

// TimeRemaining until expiry, floored at zero.
func (m *Manager) TimeRemaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return 0
	}
	remaining := m.session.ExpiresAt.Sub(m.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SessionExpired reports whether the last teardown was caused by the
// expiry timer, as opposed to an explicit logout.
func (m *Manager) SessionExpired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expired
}

// Teardown cancels all timers without navigation, for app shutdown.
func (m *Manager) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelTimersLocked()
	m.session = nil
	m.state = STATE_UNAUTHENTICATED
}

// caller must hold m.mu
func (m *Manager) armTimersLocked() {
	m.generation++
	gen := m.generation

	untilExpiry := m.session.ExpiresAt.Sub(m.now())
	untilWarning := untilExpiry - m.as.Config.GetSessionWarningWindow()

	if untilWarning > 0 {
		m.warningTimer = time.AfterFunc(untilWarning, func() {
			m.fireWarning(gen)
		})
	}
	m.expiryTimer = time.AfterFunc(untilExpiry, func() {
		m.fireExpiry(gen)
	})
}

// caller must hold m.mu
func (m *Manager) cancelTimersLocked() {
	// bump the generation so an already-fired callback that lost the race
	// finds itself stale and does nothing
	m.generation++
	if m.warningTimer != nil {
		m.warningTimer.Stop()
		m.warningTimer = nil
	}
	if m.expiryTimer != nil {
		m.expiryTimer.Stop()
		m.expiryTimer = nil
	}
}

func (m *Manager) fireWarning(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || m.state != STATE_AUTHENTICATED {
		m.mu.Unlock()
		return
	}
	remaining := m.session.ExpiresAt.Sub(m.now())
	m.mu.Unlock()

	slog.Warn("session expiring soon", "remaining", remaining)
	if m.hooks.OnExpiryWarning != nil {
		m.hooks.OnExpiryWarning(remaining)
	}
}

func (m *Manager) fireExpiry(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || m.state != STATE_AUTHENTICATED {
		m.mu.Unlock()
		return
	}
	m.cancelTimersLocked()
	m.session = nil
	m.state = STATE_UNAUTHENTICATED
	m.expired = true
	m.mu.Unlock()

	if err := model.ClearToken(context.Background(), m.as.BunDB); err != nil {
		slog.Warn("can't clear persisted token on expiry", "error", err)
	}

	slog.Info("session expired")
	if m.hooks.OnSessionExpired != nil {
		m.hooks.OnSessionExpired()
	}
	if m.hooks.Navigate != nil {
		m.hooks.Navigate(guard.LoginPath)
	}
}
