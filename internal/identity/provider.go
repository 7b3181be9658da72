package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventType classifies session-change notifications.
type EventType string

const (
	EventLogin   EventType = "login"
	EventLogout  EventType = "logout"
	EventProfile EventType = "profile"
)

// Event is delivered to subscribers whenever a session is established,
// updated, or torn down.
type Event struct {
	Type    EventType
	Session *Session
}

// Provider is the process-wide session authority. All session mutation goes
// through it; everything else only reads.
type Provider struct {
	client *Client
	store  Store
	ttl    time.Duration
	logger *zap.Logger

	mu      sync.RWMutex
	subs    map[int]chan Event
	nextSub int
	ready   bool
}

// NewProvider wires the identity client to a session store.
func NewProvider(client *Client, store Store, ttl time.Duration, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		client: client,
		store:  store,
		ttl:    ttl,
		logger: logger,
		subs:   make(map[int]chan Event),
		ready:  true,
	}
}

// Ready reports whether the provider has finished initializing. Consumers
// must not serve protected content before this is true.
func (p *Provider) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ready
}

// Login establishes a session from email/password credentials.
func (p *Provider) Login(ctx context.Context, email, password string) (*Session, error) {
	tokens, err := p.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return p.establish(ctx, tokens, EventLogin)
}

// Register creates an identity, sets its public profile, and establishes a
// session. The profile update is a second call against the fresh ID token,
// mirroring how the identity service splits account creation from profile
// mutation.
func (p *Provider) Register(ctx context.Context, name, email, password, photoURL string) (*Session, error) {
	tokens, err := p.client.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if name != "" || photoURL != "" {
		if err := p.client.UpdateAccount(ctx, tokens.IDToken, name, photoURL); err != nil {
			return nil, fmt.Errorf("account created but profile update failed: %w", err)
		}
		tokens.DisplayName = name
		if photoURL != "" {
			tokens.PhotoURL = photoURL
		}
	}
	return p.establish(ctx, tokens, EventLogin)
}

// FederatedBegin starts a provider-mediated sign-in and returns the
// authorization URL to redirect the user to, plus the flow's session ID
// which must be echoed back to FederatedComplete.
func (p *Provider) FederatedBegin(ctx context.Context, continueURI string) (authURI, flowID string, err error) {
	return p.client.CreateAuthURI(ctx, "google.com", continueURI)
}

// FederatedComplete finishes the federated flow from the provider callback.
func (p *Provider) FederatedComplete(ctx context.Context, requestURI, flowID string) (*Session, error) {
	tokens, err := p.client.SignInWithIDP(ctx, requestURI, flowID)
	if err != nil {
		return nil, err
	}
	return p.establish(ctx, tokens, EventLogin)
}

// Logout clears the session.
func (p *Provider) Logout(ctx context.Context, sessionID string) error {
	session, err := p.store.Get(ctx, sessionID)
	if err != nil {
		// Already gone; logout is idempotent.
		return nil
	}
	if err := p.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	p.notify(Event{Type: EventLogout, Session: session})
	return nil
}

// ResetPassword triggers an out-of-band reset message.
func (p *Provider) ResetPassword(ctx context.Context, email string) error {
	return p.client.SendPasswordReset(ctx, email)
}

// UpdateProfile mutates the current identity's public profile and keeps the
// stored session in sync.
func (p *Provider) UpdateProfile(ctx context.Context, sessionID, displayName, photoURL string) (*Session, error) {
	session, err := p.store.Get(ctx, sessionID)
	if err != nil {
		return nil, ErrNoSession
	}
	token, err := p.freshToken(ctx, session)
	if err != nil {
		return nil, err
	}
	if err := p.client.UpdateAccount(ctx, token, displayName, photoURL); err != nil {
		return nil, err
	}
	if displayName != "" {
		session.DisplayName = displayName
	}
	if photoURL != "" {
		session.PhotoURL = photoURL
	}
	if err := p.store.Put(ctx, session, p.ttl); err != nil {
		return nil, err
	}
	p.notify(Event{Type: EventProfile, Session: session})
	return session, nil
}

// Current returns the session for the given ID, or ErrNoSession.
func (p *Provider) Current(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	session, err := p.store.Get(ctx, sessionID)
	if err != nil {
		return nil, ErrNoSession
	}
	return session, nil
}

// Token returns a fresh bearer token for the session, refreshing it against
// the identity service when it is close to expiry.
func (p *Provider) Token(ctx context.Context, sessionID string) (string, error) {
	session, err := p.store.Get(ctx, sessionID)
	if err != nil {
		return "", ErrNoSession
	}
	return p.freshToken(ctx, session)
}

func (p *Provider) freshToken(ctx context.Context, session *Session) (string, error) {
	if !session.tokenStale(time.Now()) {
		return session.IDToken, nil
	}
	tokens, err := p.client.Refresh(ctx, session.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}
	session.IDToken = tokens.IDToken
	session.RefreshToken = tokens.RefreshToken
	session.ExpiresAt = time.Now().Add(tokens.ExpiresIn)
	if err := p.store.Put(ctx, session, p.ttl); err != nil {
		return "", err
	}
	return session.IDToken, nil
}

func (p *Provider) establish(ctx context.Context, tokens *AccountTokens, event EventType) (*Session, error) {
	session := &Session{
		ID:           uuid.NewString(),
		UID:          tokens.UID,
		Email:        tokens.Email,
		DisplayName:  tokens.DisplayName,
		PhotoURL:     tokens.PhotoURL,
		IDToken:      tokens.IDToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    time.Now().Add(tokens.ExpiresIn),
	}
	if err := p.store.Put(ctx, session, p.ttl); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	p.notify(Event{Type: event, Session: session})
	return session, nil
}

// Subscribe registers for session-change events. The returned cancel func
// must be called on teardown; after it returns no further events are
// delivered and the channel is closed.
func (p *Provider) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch
	p.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (p *Provider) notify(event Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ch := range p.subs {
		select {
		case ch <- event:
		default:
			// A slow subscriber loses events rather than blocking session
			// mutation.
			p.logger.Warn("dropping session event for slow subscriber",
				zap.String("type", string(event.Type)))
		}
	}
}

// Close tears down the session store.
func (p *Provider) Close() error {
	return p.store.Close()
}
