package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sbpickleball/match_app/internal/security"
	"github.com/sbpickleball/match_app/pkg/errors"
	"github.com/sbpickleball/match_app/pkg/logger"
)

type EventType string

const (
	SignedIn  EventType = "SIGNED_IN"
	SignedOut EventType = "SIGNED_OUT"
)

// Event is delivered to OnAuthStateChange listeners.
type Event struct {
	Type     EventType
	UserID   string
	Identity *Identity // set on SignedIn
}

type Listener func(ctx context.Context, ev Event) error

// Session is a validated, unrevoked sign-in.
type Session struct {
	UserID    string    `json:"user_id"`
	Provider  string    `json:"provider"`
	TokenID   string    `json:"-"`
	Token     string    `json:"access_token,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// userNamespace scopes the deterministic user ids derived from provider identities.
var userNamespace = uuid.MustParse("6f1c8f5e-3d2a-4b7e-9c41-2a9d5e7b0c13")

// UserIDFor maps a provider identity to a stable user id.
func UserIDFor(provider, providerUserID string) string {
	return uuid.NewSHA1(userNamespace, []byte(provider+":"+providerUserID)).String()
}

type SessionService struct {
	secret    string
	ttl       time.Duration
	providers map[string]Provider
	revoker   Revoker

	mu        sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

func NewSessionService(secret string, ttl time.Duration, revoker Revoker, providers ...Provider) *SessionService {
	s := &SessionService{
		secret:    secret,
		ttl:       ttl,
		providers: make(map[string]Provider, len(providers)),
		revoker:   revoker,
		listeners: make(map[int]Listener),
	}
	for _, p := range providers {
		s.providers[p.Name()] = p
	}
	return s
}

// Provider returns the named provider, if registered.
func (s *SessionService) Provider(name string) (Provider, bool) {
	p, ok := s.providers[name]
	return p, ok
}

// GetSession validates the token and checks it has not been signed out.
func (s *SessionService) GetSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, errors.New(errors.ErrCodeUnauthorized, "no session")
	}

	claims, err := security.ValidateJWT(token, s.secret)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnauthorized, "invalid session")
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to check session")
	}
	if revoked {
		return nil, errors.New(errors.ErrCodeUnauthorized, "session signed out")
	}

	return &Session{
		UserID:    claims.UserID,
		Provider:  claims.Provider,
		TokenID:   claims.TokenID(),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SignInWithProvider exchanges the code, issues a token and emits SIGNED_IN.
func (s *SessionService) SignInWithProvider(ctx context.Context, providerName, code string) (*Session, error) {
	provider, ok := s.providers[providerName]
	if !ok {
		return nil, errors.New(errors.ErrCodeValidation, "unknown sign-in provider")
	}

	identity, err := provider.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	userID := UserIDFor(identity.Provider, identity.ProviderUserID)
	token, claims, err := security.GenerateJWT(userID, identity.Provider, s.secret, s.ttl)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to issue session")
	}

	s.emit(ctx, Event{Type: SignedIn, UserID: userID, Identity: identity})

	return &Session{
		UserID:    userID,
		Provider:  identity.Provider,
		TokenID:   claims.TokenID(),
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SignOut revokes the token and emits SIGNED_OUT.
func (s *SessionService) SignOut(ctx context.Context, token string) error {
	session, err := s.GetSession(ctx, token)
	if err != nil {
		return err
	}

	if err := s.revoker.Revoke(ctx, session.TokenID, session.ExpiresAt); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to sign out")
	}

	s.emit(ctx, Event{Type: SignedOut, UserID: session.UserID})
	return nil
}

// OnAuthStateChange registers fn and returns a func that unregisters it.
func (s *SessionService) OnAuthStateChange(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// emit calls listeners in registration order. Listener errors are logged, not returned.
func (s *SessionService) emit(ctx context.Context, ev Event) {
	s.mu.RLock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	fns := make([]Listener, 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		if err := fn(ctx, ev); err != nil {
			logger.Warn("auth state listener failed", "event", string(ev.Type), "user_id", ev.UserID, "error", err)
		}
	}
}
