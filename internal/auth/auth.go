package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"secretsanta/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrExpiredToken       = errors.New("session expired")
)

// Account is a configured login.
type Account struct {
	Name         string
	PasswordHash string
	Admin        bool
}

// Authenticator checks passwords and issues signed session tokens.
type Authenticator struct {
	accounts map[string]Account
	key      []byte
	ttl      time.Duration
	now      func() time.Time
	check    func(hash, password string) error
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// unknownUserHash is compared against for usernames that do not exist, so
// a failed login costs one bcrypt comparison either way.
func unknownUserHash() string {
	dummyHashOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("no such user"), bcrypt.DefaultCost)
		if err == nil {
			dummyHash = string(hash)
		}
	})
	return dummyHash
}

// NewAuthenticator creates an Authenticator signing with key. Tokens are
// valid for ttl.
func NewAuthenticator(accounts map[string]Account, key string, ttl time.Duration) *Authenticator {
	return &Authenticator{
		accounts: accounts,
		key:      []byte(key),
		ttl:      ttl,
		now:      time.Now,
		check:    CheckPassword,
	}
}

// HashPassword returns a bcrypt hash suitable for config.yaml.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plain password.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Login verifies the credentials and opens a session.
func (a *Authenticator) Login(username, password string) (models.Session, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	acc, ok := a.accounts[username]
	if !ok {
		_ = a.check(unknownUserHash(), password)
		return models.Session{}, ErrInvalidCredentials
	}
	if err := a.check(acc.PasswordHash, password); err != nil {
		return models.Session{}, err
	}
	return models.Session{
		Username: username,
		Name:     acc.Name,
		Admin:    acc.Admin,
		Expires:  a.now().Add(a.ttl),
	}, nil
}

// Sign encodes the session into a cookie value:
// base64url(username|expiry|nonce) "." base64url(hmac).
func (a *Authenticator) Sign(s models.Session) string {
	payload := strings.Join([]string{s.Username, strconv.FormatInt(s.Expires.Unix(), 10), uuid.NewString()}, "|")
	encoded := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return encoded + "." + base64.RawURLEncoding.EncodeToString(a.mac(encoded))
}

// Verify decodes a cookie value produced by Sign. The account must still
// exist in the configuration.
func (a *Authenticator) Verify(token string) (models.Session, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok {
		return models.Session{}, ErrInvalidToken
	}
	gotMAC, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || !hmac.Equal(gotMAC, a.mac(encoded)) {
		return models.Session{}, ErrInvalidToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return models.Session{}, ErrInvalidToken
	}
	parts := strings.Split(string(raw), "|")
	if len(parts) != 3 {
		return models.Session{}, ErrInvalidToken
	}
	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return models.Session{}, ErrInvalidToken
	}
	expires := time.Unix(expUnix, 0)
	if !a.now().Before(expires) {
		return models.Session{}, ErrExpiredToken
	}
	acc, ok := a.accounts[parts[0]]
	if !ok {
		return models.Session{}, ErrInvalidToken
	}
	return models.Session{
		Username: parts[0],
		Name:     acc.Name,
		Admin:    acc.Admin,
		Expires:  expires,
	}, nil
}

func (a *Authenticator) mac(data string) []byte {
	h := hmac.New(sha256.New, a.key)
	h.Write([]byte(data))
	return h.Sum(nil)
}
