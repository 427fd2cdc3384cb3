package session

import "sync"

// State describes the auth gate. It starts Unknown and resolves to
// Authenticated or Unauthenticated once the store has been read, so callers
// never act on a not-yet-rehydrated session.
type State int

const (
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Manager owns the current session and the gate state. It hands the token to
// each outgoing call rather than mutating any shared default header set.
type Manager struct {
	store *Store

	mu    sync.Mutex
	state State
	sess  Session
}

// NewManager wraps a Store. The gate stays Unknown until Resolve runs.
func NewManager(store *Store) *Manager {
	return &Manager{store: store, state: StateUnknown}
}

// Resolve rehydrates the session from the store and settles the gate state.
// A held token authenticates even when its identity payload is unparsable;
// the server remains the authority on token validity.
func (m *Manager) Resolve() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, err := m.store.Load()
	if err != nil {
		m.state = StateUnauthenticated
		return m.state, err
	}
	m.sess = sess
	if sess.IsAuthenticated() {
		m.state = StateAuthenticated
	} else {
		m.state = StateUnauthenticated
	}
	return m.state, nil
}

// Login stores the freshly issued token and the identity derived from it.
// A decode failure does not block login; the decode error is returned so the
// caller can distinguish a missing identity from a broken one.
func (m *Manager) Login(token, fallbackEmail string) (Identity, error) {
	ident, decodeErr := DecodeIdentity(token)
	if decodeErr == nil && ident.Email == "" {
		ident.Email = fallbackEmail
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = Session{User: ident, Token: token}
	m.state = StateAuthenticated
	if err := m.store.Save(m.sess); err != nil {
		return ident, err
	}
	return ident, decodeErr
}

// Logout clears both the in-memory and persisted session.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = Session{}
	m.state = StateUnauthenticated
	return m.store.Clear()
}

// State returns the current gate state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns the held session.
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess
}

// Token returns the held token for per-request credential injection.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.Token
}
