// Package testutil provides test environment setup and utilities for internal package tests.
package testutil

import (
	"database/sql"
	"net/http"
	"testing"
	"time"

	"git.sr.ht/~jakintosh/loginhandler/internal/api"
	"git.sr.ht/~jakintosh/loginhandler/internal/database"
	"git.sr.ht/~jakintosh/loginhandler/internal/identity"
	"git.sr.ht/~jakintosh/loginhandler/internal/metrics"
	"git.sr.ht/~jakintosh/loginhandler/internal/service"
	"git.sr.ht/~jakintosh/loginhandler/internal/settings"
	"git.sr.ht/~jakintosh/loginhandler/pkg/tokens"
)

const (
	TestIssuer   = "test.loginhandler.local"
	TestAudience = "test-app"
	TestSecret   = "test-signature-key"
	TestLifetime = 3600
	testTimeout  = 2 * time.Second
)

// TestEnv provides all dependencies needed for testing
type TestEnv struct {
	SQL      *sql.DB
	DB       *database.SQLiteStore
	Settings *settings.Store
	Provider *Provider
	Metrics  *metrics.Metrics
	Service  *service.Service
	Router   http.Handler
}

// SetupTestEnv creates an isolated test environment with in-memory SQLite
// and a fake identity provider.
func SetupTestEnv(
	t *testing.T,
) *TestEnv {
	t.Helper()

	// create in-memory SQLite database, one connection so every query
	// sees the same data
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	db, err := database.NewSQLiteStoreFromDB(conn)
	if err != nil {
		_ = conn.Close()
		t.Fatalf("failed to init test database: %v", err)
	}

	provider := NewProvider(t)
	store := settings.NewStaticStore(TestSettings(provider.URL()))
	m := metrics.New()

	validator := identity.NewValidator(provider.Client(), store, m)
	svc := service.New(
		db.UserStore(),
		validator,
		store,
		m,
		service.PasswordModeTesting,
	)

	// setup cleanup
	t.Cleanup(func() {
		_ = db.Close()
	})

	return &TestEnv{
		SQL:      conn,
		DB:       db,
		Settings: store,
		Provider: provider,
		Metrics:  m,
		Service:  svc,
	}
}

// SetupTestEnvWithRouter creates TestEnv and configures the API router
func SetupTestEnvWithRouter(
	t *testing.T,
) *TestEnv {
	t.Helper()
	env := SetupTestEnv(t)
	a := api.New(env.Service, env.Metrics.Registry, env.DB)
	env.Router = a.Router()
	return env
}

// TestSettings returns complete settings pointing at providerURL.
func TestSettings(providerURL string) *settings.Settings {
	return &settings.Settings{
		GoogleAPIURL:   providerURL,
		TokenIssuer:    TestIssuer,
		TokenAudience:  TestAudience,
		SignatureKey:   TestSecret,
		ExpirationTime: TestLifetime,
		RequestTimeout: testTimeout,
	}
}

// CreateTestUser creates an active user and returns it with its first
// session token.
func (env *TestEnv) CreateTestUser(
	t *testing.T,
	name string,
	email string,
) (
	*service.User,
	*tokens.SessionToken,
) {
	t.Helper()
	user, token, err := env.Service.CreateUser(name, email, "password123")
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user, token
}

// IssueTestSessionToken mints a session token with the environment's
// signing settings.
func (env *TestEnv) IssueTestSessionToken(
	t *testing.T,
	uid string,
) *tokens.SessionToken {
	t.Helper()
	token, err := env.Service.IssueSessionToken(uid)
	if err != nil {
		t.Fatalf("failed to issue test session token: %v", err)
	}
	return token
}

// TestValidator returns a client side validator for the environment's
// session tokens.
func (env *TestEnv) TestValidator(t *testing.T) tokens.Validator {
	t.Helper()
	validator, err := tokens.InitClient(TestSecret, TestIssuer, TestAudience)
	if err != nil {
		t.Fatalf("failed to init test validator: %v", err)
	}
	return validator
}

// StoredSecret returns the password hash stored for email, nil when the
// account has none.
func (env *TestEnv) StoredSecret(
	t *testing.T,
	email string,
) []byte {
	t.Helper()
	var secret []byte
	err := env.SQL.QueryRow(`SELECT secret FROM account WHERE email=?`, email).Scan(&secret)
	if err != nil {
		t.Fatalf("failed to read stored secret: %v", err)
	}
	return secret
}
