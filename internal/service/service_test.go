package service_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~jakintosh/loginhandler/internal/service"
	"git.sr.ht/~jakintosh/loginhandler/internal/settings"
	envutil "git.sr.ht/~jakintosh/loginhandler/internal/testutil"
	"git.sr.ht/~jakintosh/loginhandler/pkg/tokens"
)

func TestPasswordMode_Cost(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 4, service.PasswordModeTesting.Cost())
	assert.Equal(t, 10, service.PasswordModeProduction.Cost())
}

func TestIssueSessionToken_UsesCurrentSettings(t *testing.T) {
	t.Parallel()
	env := envutil.SetupTestEnv(t)

	token := env.IssueTestSessionToken(t, "42")

	assert.Equal(t, "42", token.UID())
	assert.Equal(t, "42", token.Subject())
	assert.Equal(t, envutil.TestIssuer, token.Issuer())
	assert.Equal(t, envutil.TestAudience, token.Audience())
	assert.Equal(t, time.Duration(envutil.TestLifetime)*time.Second, token.Expiration().Sub(token.IssuedAt()))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.Metrics.SessionsIssued))
}

func TestIssueSessionToken_Misconfigured(t *testing.T) {
	t.Parallel()
	env := envutil.SetupTestEnv(t)

	incomplete := envutil.TestSettings(env.Provider.URL())
	incomplete.TokenIssuer = ""
	svc := service.New(env.DB.UserStore(), nil, settings.NewStaticStore(incomplete), env.Metrics, service.PasswordModeTesting)

	// no token is produced without an issuer
	token, err := svc.IssueSessionToken("42")
	assert.Nil(t, token)
	assert.ErrorIs(t, err, service.ErrInternal)
	assert.ErrorIs(t, err, tokens.ErrSigningMisconfigured())
	assert.Equal(t, 1.0, testutil.ToFloat64(env.Metrics.IssuanceFailures))
}

func TestIssueSessionToken_EmptyUID(t *testing.T) {
	t.Parallel()
	env := envutil.SetupTestEnv(t)

	_, err := env.Service.IssueSessionToken("")
	assert.ErrorIs(t, err, service.ErrInternal)
}

func TestIssueSessionToken_WithClock(t *testing.T) {
	t.Parallel()
	env := envutil.SetupTestEnv(t)

	fixed := time.Unix(1_700_000_000, 0)
	svc := service.New(env.DB.UserStore(), nil, env.Settings, nil, service.PasswordModeTesting,
		tokens.WithClock(func() time.Time { return fixed }))

	a, err := svc.IssueSessionToken("7")
	require.NoError(t, err)
	b, err := svc.IssueSessionToken("7")
	require.NoError(t, err)

	// same second, same token
	assert.Equal(t, a.Encoded(), b.Encoded())
	assert.Equal(t, fixed.Unix(), a.IssuedAt().Unix())
}

func TestVerifySessionToken_Success(t *testing.T) {
	t.Parallel()
	env := envutil.SetupTestEnv(t)

	issued := env.IssueTestSessionToken(t, "42")

	verified, err := env.Service.VerifySessionToken(issued.Encoded())
	require.NoError(t, err)
	assert.Equal(t, "42", verified.UID())
	assert.Equal(t, issued.Expiration().Unix(), verified.Expiration().Unix())
}

func TestVerifySessionToken_Empty(t *testing.T) {
	t.Parallel()
	env := envutil.SetupTestEnv(t)

	_, err := env.Service.VerifySessionToken("")
	assert.ErrorIs(t, err, service.ErrEmptyInput)
}

func TestVerifySessionToken_Tampered(t *testing.T) {
	t.Parallel()
	env := envutil.SetupTestEnv(t)

	issued := env.IssueTestSessionToken(t, "42")
	tampered := issued.Encoded() + "x"

	_, err := env.Service.VerifySessionToken(tampered)
	assert.ErrorIs(t, err, service.ErrTokenInvalid)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.Metrics.SessionsRejected))
}

func TestVerifySessionToken_AfterKeyRotation(t *testing.T) {
	t.Parallel()
	env := envutil.SetupTestEnv(t)

	issued := env.IssueTestSessionToken(t, "42")

	rotated := envutil.TestSettings(env.Provider.URL())
	rotated.SignatureKey = "rotated-key"
	svc := service.New(env.DB.UserStore(), nil, settings.NewStaticStore(rotated), nil, service.PasswordModeTesting)

	_, err := svc.VerifySessionToken(issued.Encoded())
	assert.ErrorIs(t, err, service.ErrTokenInvalid)
	assert.ErrorIs(t, err, tokens.ErrTokenBadSignature())
}
