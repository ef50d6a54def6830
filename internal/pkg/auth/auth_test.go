package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/config"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Sellers0nlyPlease"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	return &config.Config{
		App:    config.AppConfig{Name: "Storefront"},
		JWT:    config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", AccessTokenExpiry: time.Hour},
		Seller: config.SellerConfig{Email: "Seller@Example.com", PasswordHash: string(hash)},
	}
}

func TestJWTManager_RoundTrip(t *testing.T) {
	jwtManager := NewJWTManager(testConfig(t))

	token, expiresAt, err := jwtManager.GenerateAccessToken("seller@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := jwtManager.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "seller@example.com", claims.Email)
	assert.Equal(t, RoleSeller, claims.Role)
}

func TestJWTManager_Rejects(t *testing.T) {
	cfg := testConfig(t)
	jwtManager := NewJWTManager(cfg)
	token, _, err := jwtManager.GenerateAccessToken("seller@example.com")
	require.NoError(t, err)

	t.Run("expired: error", func(t *testing.T) {
		later := NewJWTManager(cfg)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("other secret: error", func(t *testing.T) {
		other := *cfg
		other.JWT.Secret = "ffffffffffffffffffffffffffffffff"
		_, err := NewJWTManager(&other).ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage: error", func(t *testing.T) {
		_, err := jwtManager.ValidateAccessToken("not.a.token")
		assert.Error(t, err)
	})
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromHeader("Bearer abc"))
	assert.Equal(t, "", ExtractTokenFromHeader("Basic abc"))
	assert.Equal(t, "", ExtractTokenFromHeader(""))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{password: testPassword},
		{password: "Short1", wantErr: true},
		{password: "alllowercase123", wantErr: true},
		{password: "NoNumbersHereAtAll", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPasswordManager(t *testing.T) {
	pm := NewPasswordManager(bcrypt.MinCost)

	hash, err := pm.HashPassword(testPassword)
	require.NoError(t, err)
	assert.NoError(t, pm.VerifyPassword(testPassword, hash))
	assert.Error(t, pm.VerifyPassword("wrong", hash))

	_, err = pm.HashPassword("weak")
	assert.Error(t, err)
}

func TestSellerAuthenticator_Login(t *testing.T) {
	cfg := testConfig(t)
	tokens := NewJWTManager(cfg)
	auth := NewSellerAuthenticator(cfg, NewPasswordManager(bcrypt.MinCost), tokens)

	token, _, err := auth.Login(" seller@example.com ", testPassword)
	require.NoError(t, err)
	claims, err := tokens.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "seller@example.com", claims.Email)

	_, _, err = auth.Login("seller@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = auth.Login("someone@example.com", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	cfg.Seller.PasswordHash = ""
	disabled := NewSellerAuthenticator(cfg, NewPasswordManager(bcrypt.MinCost), tokens)
	assert.False(t, disabled.Enabled())
	_, _, err = disabled.Login("seller@example.com", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
