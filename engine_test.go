package authgate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/casterhq/authgate/password"
	"github.com/casterhq/authgate/role"
	"github.com/casterhq/authgate/token"
)

var (
	testAccessSecret  = []byte("access-secret-0123456789abcdefgh")
	testRefreshSecret = []byte("refresh-secret-0123456789abcdefg")
)

// mockAccountStore is an in-memory AccountStore with injectable failures.
type mockAccountStore struct {
	mu       sync.Mutex
	accounts map[string]*Account
	byEmail  map[string]string

	findErr   error
	updateErr error
	updates   int
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{
		accounts: make(map[string]*Account),
		byEmail:  make(map[string]string),
	}
}

func (m *mockAccountStore) add(a Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := a
	m.accounts[a.ID] = &copied
	m.byEmail[a.Email] = a.ID
}

func (m *mockAccountStore) get(id string) Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.accounts[id]
}

func (m *mockAccountStore) FindAccountByID(_ context.Context, id string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return nil, m.findErr
	}
	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *mockAccountStore) FindAccountByEmail(_ context.Context, email string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return nil, m.findErr
	}
	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	copied := *m.accounts[id]
	return &copied, nil
}

func (m *mockAccountStore) UpdateAccount(_ context.Context, id string, update AccountUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}
	a, ok := m.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	if update.RefreshToken != nil {
		a.RefreshToken = *update.RefreshToken
	}
	if update.PasswordHash != nil {
		a.PasswordHash = *update.PasswordHash
	}
	m.updates++
	return nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessSecret = testAccessSecret
	cfg.JWT.RefreshSecret = testRefreshSecret
	// Floor argon2 costs keep the suite fast.
	cfg.Password = password.Params{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
	cfg.PasswordReset.Enabled = false
	return cfg
}

func newTestEngine(t *testing.T, cfg Config, store AccountStore) *Engine {
	t.Helper()

	engine, err := New().
		WithConfig(cfg).
		WithAccountStore(store).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	return engine
}

func newResetEngine(t *testing.T, store AccountStore) (*Engine, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	cfg.PasswordReset.Enabled = true

	engine, err := New().
		WithConfig(cfg).
		WithAccountStore(store).
		WithRedis(rdb).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	return engine, mr
}

func seedAccount(t *testing.T, store *mockAccountStore, engine *Engine, id, email string, r role.Role, pass string) {
	t.Helper()

	hash, err := engine.hasher.Hash(pass)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	store.add(Account{ID: id, Email: email, Role: r, IsActive: true, PasswordHash: hash})
}

func TestBuilderValidation(t *testing.T) {
	store := newMockAccountStore()

	if _, err := New().WithAccountStore(store).Build(); err == nil {
		t.Fatal("expected failure without secrets")
	}

	cfg := testConfig()
	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected failure without account store")
	}

	same := testConfig()
	same.JWT.RefreshSecret = same.JWT.AccessSecret
	if _, err := New().WithConfig(same).WithAccountStore(store).Build(); err == nil {
		t.Fatal("expected failure for identical secrets")
	}

	short := testConfig()
	short.JWT.AccessSecret = []byte("too-short")
	if _, err := New().WithConfig(short).WithAccountStore(store).Build(); err == nil {
		t.Fatal("expected failure for short secret")
	}

	resetNoRedis := testConfig()
	resetNoRedis.PasswordReset.Enabled = true
	if _, err := New().WithConfig(resetNoRedis).WithAccountStore(store).Build(); err == nil {
		t.Fatal("expected failure for reset flow without redis")
	}

	b := New().WithConfig(testConfig()).WithAccountStore(store)
	if _, err := b.Build(); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("builder must be single-use")
	}
}

func TestIssueTokens(t *testing.T) {
	store := newMockAccountStore()
	engine := newTestEngine(t, testConfig(), store)

	pair, err := engine.IssueTokens(Identity{SubjectID: "u1", Email: "a@b.com", Role: role.Admin})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if pair.TokenType != "Bearer" {
		t.Fatalf("token type = %q", pair.TokenType)
	}
	if pair.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Fatalf("expiresIn = %d, want 900", pair.ExpiresIn)
	}

	accessCodec, _ := token.NewCodec(testAccessSecret, 15*time.Minute)
	claims, err := accessCodec.Decode(pair.AccessToken)
	if err != nil {
		t.Fatalf("access decode failed: %v", err)
	}
	if claims.Subject != "u1" || claims.Email != "a@b.com" || claims.Role != role.Admin {
		t.Fatalf("access claims mismatch: %+v", claims)
	}

	refreshCodec, _ := token.NewCodec(testRefreshSecret, 7*24*time.Hour)
	rc, err := refreshCodec.Decode(pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh decode failed: %v", err)
	}
	if rc.Role != role.Minimal {
		t.Fatalf("refresh token role = %q, must be minimal", rc.Role)
	}
}

func TestAuthenticateHappyPath(t *testing.T) {
	store := newMockAccountStore()
	engine := newTestEngine(t, testConfig(), store)
	seedAccount(t, store, engine, "u1", "a@b.com", role.Editor, "hunter-two-longer")

	pair, err := engine.IssueTokens(Identity{SubjectID: "u1", Email: "a@b.com", Role: role.Editor})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	id, err := engine.Authenticate(context.Background(), "Bearer "+pair.AccessToken)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if id.SubjectID != "u1" || id.Email != "a@b.com" || id.Role != role.Editor {
		t.Fatalf("identity mismatch: %+v", id)
	}
}

func TestAuthenticateHeaderShapes(t *testing.T) {
	store := newMockAccountStore()
	engine := newTestEngine(t, testConfig(), store)

	cases := []struct {
		name   string
		header string
		want   error
	}{
		{"missing header", "", ErrMissingAuthHeader},
		{"basic scheme", "Basic xyz", ErrBadAuthScheme},
		{"lowercase bearer", "bearer abc", ErrBadAuthScheme},
		{"empty token", "Bearer ", ErrEmptyBearerToken},
		{"garbage token", "Bearer not-a-jwt", token.ErrTokenInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Authenticate(context.Background(), tc.header)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if KindOf(err) != KindAuthentication {
				t.Fatalf("kind = %v, want authentication", KindOf(err))
			}
		})
	}
}

func TestAuthenticateLivenessGate(t *testing.T) {
	store := newMockAccountStore()
	engine := newTestEngine(t, testConfig(), store)
	seedAccount(t, store, engine, "u1", "a@b.com", role.User, "hunter-two-longer")

	pair, err := engine.IssueTokens(Identity{SubjectID: "u1", Email: "a@b.com", Role: role.User})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := engine.Authenticate(context.Background(), "Bearer "+pair.AccessToken); err != nil {
		t.Fatalf("authenticate failed while active: %v", err)
	}

	// Deactivation between issuance and use must defeat the still-valid token.
	acct := store.get("u1")
	acct.IsActive = false
	store.add(acct)

	if _, err := engine.Authenticate(context.Background(), "Bearer "+pair.AccessToken); !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}

	// A deleted account fails the same gate.
	store.mu.Lock()
	delete(store.accounts, "u1")
	store.mu.Unlock()

	if _, err := engine.Authenticate(context.Background(), "Bearer "+pair.AccessToken); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAuthenticateStoreOutageIsInternal(t *testing.T) {
	store := newMockAccountStore()
	engine := newTestEngine(t, testConfig(), store)
	seedAccount(t, store, engine, "u1", "a@b.com", role.User, "hunter-two-longer")

	pair, err := engine.IssueTokens(Identity{SubjectID: "u1", Email: "a@b.com", Role: role.User})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	store.findErr = fmt.Errorf("connection refused")

	_, err = engine.Authenticate(context.Background(), "Bearer "+pair.AccessToken)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if KindOf(err) != KindInternal {
		t.Fatalf("store outage must classify internal, got %v", KindOf(err))
	}
}

func TestAuthorizeHierarchy(t *testing.T) {
	store := newMockAccountStore()
	engine := newTestEngine(t, testConfig(), store)

	for _, holder := range role.All() {
		for _, required := range role.All() {
			id := &Identity{SubjectID: "u1", Email: "a@b.com", Role: holder}
			err := engine.Authorize(id, ModeHierarchy, required)

			if holder.Rank() >= required.Rank() {
				if err != nil {
					t.Fatalf("%s vs %s: unexpected denial: %v", holder, required, err)
				}
				continue
			}

			var roleErr *RoleError
			if !errors.As(err, &roleErr) {
				t.Fatalf("%s vs %s: expected RoleError, got %v", holder, required, err)
			}
			if KindOf(err) != KindAuthorization {
				t.Fatalf("denial kind = %v, want authorization", KindOf(err))
			}
		}
	}
}

func TestAuthorizeHierarchyCollapsesToMostSenior(t *testing.T) {
	store := newMockAccountStore()
	engine := newTestEngine(t, testConfig(), store)

	id := &Identity{SubjectID: "u1", Role: role.Editor}
	// EDITOR cannot pass a {USER, ADMIN} hierarchy gate: ADMIN wins the set.
	err := engine.Authorize(id, ModeHierarchy, role.User, role.Admin)

	var roleErr *RoleError
	if !errors.As(err, &roleErr) {
		t.Fatalf("expected RoleError, got %v", err)
	}
	if len(roleErr.Required) != 1 || roleErr.Required[0] != role.Admin {
		t.Fatalf("denial must name the most senior role, got %v", roleErr.Required)
	}
}

func TestAuthorizeExactSet(t *testing.T) {
	store := newMockAccountStore()
	engine := newTestEngine(t, testConfig(), store)

	editor := &Identity{SubjectID: "u1", Role: role.Editor}
	if err := engine.Authorize(editor, ModeExact, role.Editor, role.User); err != nil {
		t.Fatalf("exact membership denied: %v", err)
	}

	// Seniority earns no credit in exact mode.
	admin := &Identity{SubjectID: "u2", Role: role.SuperAdmin}
	err := engine.Authorize(admin, ModeExact, role.Editor)
	var roleErr *RoleError
	if !errors.As(err, &roleErr) || !roleErr.Exact {
		t.Fatalf("expected exact-mode RoleError, got %v", err)
	}
}

func TestAuthorizeWithoutIdentity(t *testing.T) {
	store := newMockAccountStore()
	engine := newTestEngine(t, testConfig(), store)

	err := engine.Authorize(nil, ModeHierarchy, role.User)
	if !errors.Is(err, ErrIdentityRequired) {
		t.Fatalf("expected ErrIdentityRequired, got %v", err)
	}
	if KindOf(err) != KindAuthentication {
		t.Fatalf("missing identity must classify authentication, got %v", KindOf(err))
	}
}

func TestLogin(t *testing.T) {
	store := newMockAccountStore()
	engine := newTestEngine(t, testConfig(), store)
	seedAccount(t, store, engine, "u1", "a@b.com", role.User, "hunter-two-longer")

	pair, err := engine.Login(context.Background(), "a@b.com", "hunter-two-longer")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if got := store.get("u1").RefreshToken; got != pair.RefreshToken {
		t.Fatal("login must persist the issued refresh token")
	}

	if _, err := engine.Login(context.Background(), "a@b.com", "wrong-password!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := engine.Login(context.Background(), "nobody@b.com", "hunter-two-longer"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email must report ErrInvalidCredentials, got %v", err)
	}

	acct := store.get("u1")
	acct.IsActive = false
	store.add(acct)
	if _, err := engine.Login(context.Background(), "a@b.com", "hunter-two-longer"); !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestRevokeClearsStoredRefreshToken(t *testing.T) {
	store := newMockAccountStore()
	engine := newTestEngine(t, testConfig(), store)
	seedAccount(t, store, engine, "u1", "a@b.com", role.User, "hunter-two-longer")

	pair, err := engine.Login(context.Background(), "a@b.com", "hunter-two-longer")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := engine.Revoke(context.Background(), "u1"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	if _, err := engine.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrRefreshReused) {
		t.Fatalf("revoked refresh token must fail, got %v", err)
	}
}
