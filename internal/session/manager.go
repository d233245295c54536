package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wdv96wdv/Doclimb/internal/models"
	"github.com/wdv96wdv/Doclimb/pkg/utils"
)

var ErrRevoked = errors.New("session revoked")

// Context is what a request knows about its viewer.
type Context struct {
	UserID          uuid.UUID       `json:"user_id"`
	Profile         *models.Profile `json:"profile"`
	Claims          *utils.Claims   `json:"-"`
	IsAuthenticated bool            `json:"is_authenticated"`
	IsAdmin         bool            `json:"is_admin"`
	Loading         bool            `json:"loading"`
}

func Anonymous() *Context {
	return &Context{}
}

type profileReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

type revocationChecker interface {
	IsRevoked(ctx context.Context, tokenID, userID string, issuedAt time.Time) (bool, error)
}

// Manager resolves tokens into viewer contexts and keeps a profile cache that
// session events invalidate. Start and Close bracket its subscription.
type Manager struct {
	profiles    profileReader
	revocations revocationChecker
	bus         *Bus
	ttl         time.Duration

	mu          sync.Mutex
	cache       map[uuid.UUID]cachedProfile
	unsubscribe func()
}

type cachedProfile struct {
	profile  *models.Profile
	loadedAt time.Time
}

func NewManager(profiles profileReader, revocations revocationChecker, bus *Bus) *Manager {
	return &Manager{
		profiles:    profiles,
		revocations: revocations,
		bus:         bus,
		ttl:         5 * time.Minute,
		cache:       make(map[uuid.UUID]cachedProfile),
	}
}

func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsubscribe != nil || m.bus == nil {
		return
	}
	m.unsubscribe = m.bus.Subscribe(m.handle)
}

func (m *Manager) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.cache = make(map[uuid.UUID]cachedProfile)
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (m *Manager) handle(event Event) {
	switch event.Kind {
	case EventSignedOut, EventProfileUpdated, EventAccountDeleted:
		m.Forget(event.UserID)
	}
}

func (m *Manager) Forget(userID uuid.UUID) {
	m.mu.Lock()
	delete(m.cache, userID)
	m.mu.Unlock()
}

// Resolve turns validated claims into a viewer context. A user without a
// profile is signed in but not authenticated for member pages.
func (m *Manager) Resolve(ctx context.Context, claims *utils.Claims) (*Context, error) {
	if claims == nil {
		return Anonymous(), nil
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse subject: %w", err)
	}

	if m.revocations != nil {
		var issuedAt time.Time
		if claims.IssuedAt != nil {
			issuedAt = claims.IssuedAt.Time
		}
		revoked, err := m.revocations.IsRevoked(ctx, claims.ID, claims.UserID, issuedAt)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, ErrRevoked
		}
	}

	profile, err := m.profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Context{
		UserID:          userID,
		Profile:         profile,
		Claims:          claims,
		IsAuthenticated: profile != nil,
		IsAdmin:         profile.IsAdmin(),
	}, nil
}

func (m *Manager) profile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	now := time.Now()

	m.mu.Lock()
	cached, ok := m.cache[userID]
	m.mu.Unlock()
	if ok && now.Sub(cached.loadedAt) < m.ttl {
		return cached.profile, nil
	}

	profile, err := m.profiles.GetByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	m.mu.Lock()
	m.cache[userID] = cachedProfile{profile: profile, loadedAt: now}
	m.mu.Unlock()
	return profile, nil
}
