package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/your-org/storefront/internal/config"
)

// ErrInvalidCredentials is returned for any failed seller login
var ErrInvalidCredentials = errors.New("invalid email or password")

// SellerAuthenticator checks the single seller account configured through
// SELLER_EMAIL and SELLER_PASSWORD_HASH
type SellerAuthenticator struct {
	email     string
	hash      string
	passwords *PasswordManager
	tokens    *JWTManager
}

func NewSellerAuthenticator(cfg *config.Config, passwords *PasswordManager, tokens *JWTManager) *SellerAuthenticator {
	return &SellerAuthenticator{
		email:     strings.ToLower(cfg.Seller.Email),
		hash:      cfg.Seller.PasswordHash,
		passwords: passwords,
		tokens:    tokens,
	}
}

// Enabled reports whether a seller password hash is configured
func (a *SellerAuthenticator) Enabled() bool {
	return a.hash != ""
}

// Login verifies the credentials and issues an access token
func (a *SellerAuthenticator) Login(email, password string) (string, time.Time, error) {
	if !a.Enabled() {
		return "", time.Time{}, ErrInvalidCredentials
	}

	emailOK := subtle.ConstantTimeCompare([]byte(strings.ToLower(strings.TrimSpace(email))), []byte(a.email)) == 1
	// always run bcrypt so a wrong email costs as much as a wrong password
	passwordOK := a.passwords.VerifyPassword(password, a.hash) == nil
	if !emailOK || !passwordOK {
		return "", time.Time{}, ErrInvalidCredentials
	}

	return a.tokens.GenerateAccessToken(a.email)
}
