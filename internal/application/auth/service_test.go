package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domainSession "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/session"
	domainUser "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/user"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domainUser.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domainUser.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, u *domainUser.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.UserID] = &cp
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, u *domainUser.User) error {
	return f.Create(nil, u)
}

func (f *fakeUserRepo) GetByID(_ context.Context, userID uuid.UUID) (*domainUser.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domainUser.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) List(_ context.Context, filter domainUser.Filter, limit, offset int) ([]*domainUser.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users), nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domainSession.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*domainSession.Session)}
}

func (f *fakeSessionRepo) Create(_ context.Context, s *domainSession.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions[s.TokenHash] = &cp
	return nil
}

func (f *fakeSessionRepo) GetByTokenHash(_ context.Context, tokenHash string) (*domainSession.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[tokenHash]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionRepo) DeleteByID(_ context.Context, sessionID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for hash, s := range f.sessions {
		if s.SessionID == sessionID {
			delete(f.sessions, hash)
		}
	}
	return nil
}

func (f *fakeSessionRepo) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, tokenHash)
	return nil
}

func (f *fakeSessionRepo) Touch(_ context.Context, s *domainSession.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.sessions[s.TokenHash]
	if !ok {
		return nil
	}
	stored.LastSeenAt = s.LastSeenAt
	stored.ExpiresAt = s.ExpiresAt
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	n := 0
	for hash, s := range f.sessions {
		if s.IsExpired(now) {
			delete(f.sessions, hash)
			n++
		}
	}
	return n, nil
}

func newTestService(t *testing.T, ttl time.Duration) (*Service, *fakeUserRepo, *fakeSessionRepo) {
	t.Helper()
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	return NewService(users, sessions, ttl, zerolog.Nop()), users, sessions
}

func seedUser(t *testing.T, repo *fakeUserRepo, username, password string, status domainUser.Status) *domainUser.User {
	t.Helper()
	hash, err := domainUser.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domainUser.User{
		UserID:       uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Role:         domainUser.RoleSupplier,
		Status:       status,
	}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, users, _ := newTestService(t, time.Hour)
	ctx := context.Background()
	seeded := seedUser(t, users, "fornecedor1", "S3cure!Passw0rd", domainUser.StatusActive)

	if _, err := svc.Login(ctx, "fornecedor1", "wrong", nil, nil); err == nil {
		t.Fatalf("expected wrong password to fail")
	}
	if _, err := svc.Login(ctx, "ninguem", "S3cure!Passw0rd", nil, nil); err == nil {
		t.Fatalf("expected unknown user to fail")
	}

	res, err := svc.Login(ctx, "  Fornecedor1 ", "S3cure!Passw0rd", nil, nil)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected opaque token")
	}
	if res.User.UserID != seeded.UserID {
		t.Fatalf("unexpected user")
	}
	if res.Session.TokenHash == res.Token {
		t.Fatalf("session must store a hash, not the raw token")
	}

	u, sess, err := svc.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if u.UserID != seeded.UserID || sess.SessionID != res.Session.SessionID {
		t.Fatalf("authenticate returned the wrong identity")
	}

	if _, _, err := svc.Authenticate(ctx, "forged-token"); err == nil {
		t.Fatalf("expected forged token to fail")
	}
}

func TestLoginDisabledUser(t *testing.T) {
	svc, users, _ := newTestService(t, time.Hour)
	seedUser(t, users, "desativado", "S3cure!Passw0rd", domainUser.StatusDisabled)
	if _, err := svc.Login(context.Background(), "desativado", "S3cure!Passw0rd", nil, nil); err == nil {
		t.Fatalf("expected disabled user login to fail")
	}
}

func TestAuthenticateExpiredSession(t *testing.T) {
	svc, users, sessions := newTestService(t, -time.Minute)
	ctx := context.Background()
	seedUser(t, users, "fornecedor1", "S3cure!Passw0rd", domainUser.StatusActive)

	res, err := svc.Login(ctx, "fornecedor1", "S3cure!Passw0rd", nil, nil)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, _, err := svc.Authenticate(ctx, res.Token); err == nil {
		t.Fatalf("expected expired session to fail")
	}
	// The expired session is removed on sight.
	stored, _ := sessions.GetByTokenHash(ctx, res.Session.TokenHash)
	if stored != nil {
		t.Fatalf("expected expired session to be deleted")
	}
}

func TestAuthenticateSlidesExpiry(t *testing.T) {
	svc, users, sessions := newTestService(t, time.Hour)
	ctx := context.Background()
	seedUser(t, users, "fornecedor1", "S3cure!Passw0rd", domainUser.StatusActive)

	res, err := svc.Login(ctx, "fornecedor1", "S3cure!Passw0rd", nil, nil)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// A fresh session keeps its original expiry.
	if _, _, err := svc.Authenticate(ctx, res.Token); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	stored, _ := sessions.GetByTokenHash(ctx, res.Session.TokenHash)
	if !stored.ExpiresAt.Equal(res.Session.ExpiresAt) {
		t.Fatalf("fresh session expiry moved from %v to %v", res.Session.ExpiresAt, stored.ExpiresAt)
	}

	// With less than half the TTL left, authenticating renews it.
	sessions.mu.Lock()
	nearExpiry := time.Now().UTC().Add(10 * time.Minute)
	sessions.sessions[res.Session.TokenHash].ExpiresAt = nearExpiry
	sessions.mu.Unlock()

	if _, _, err := svc.Authenticate(ctx, res.Token); err != nil {
		t.Fatalf("authenticate near expiry: %v", err)
	}
	stored, _ = sessions.GetByTokenHash(ctx, res.Session.TokenHash)
	if !stored.ExpiresAt.After(nearExpiry.Add(40 * time.Minute)) {
		t.Fatalf("expected expiry to slide a full TTL forward, got %v", stored.ExpiresAt)
	}
	if stored.LastSeenAt == nil {
		t.Fatalf("expected last seen to be recorded")
	}
}

func TestLogout(t *testing.T) {
	svc, users, _ := newTestService(t, time.Hour)
	ctx := context.Background()
	seedUser(t, users, "fornecedor1", "S3cure!Passw0rd", domainUser.StatusActive)

	res, err := svc.Login(ctx, "fornecedor1", "S3cure!Passw0rd", nil, nil)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(ctx, res.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, _, err := svc.Authenticate(ctx, res.Token); err == nil {
		t.Fatalf("expected token to be invalid after logout")
	}
	if err := svc.Logout(ctx, ""); err != nil {
		t.Fatalf("empty token logout should be a no-op: %v", err)
	}
}
