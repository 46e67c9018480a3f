// Package session stores the provider's access token in a browser cookie.
//
// The cookie value is base64(JSON(token)). When secrets are configured the
// value is signed as "value.signature" with HMAC-SHA256; the first secret
// signs and every secret verifies so secrets can be rotated.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/starterkit/internal/config"
	"github.com/starterkit/internal/domain"
)

var (
	// ErrNoCookie is returned when the request carries no session cookie
	ErrNoCookie = errors.New("session cookie not present")
	// ErrInvalidCookie is returned when the cookie fails to verify or decode
	ErrInvalidCookie = errors.New("session cookie is invalid")
)

// Codec reads and writes the session cookie
type Codec struct {
	name    string
	domain  string
	secure  bool
	secrets [][]byte
	now     func() time.Time
}

// NewCodec creates a codec from the cookie configuration
func NewCodec(cfg config.CookieConfig) *Codec {
	secrets := make([][]byte, 0, len(cfg.Secrets))
	for _, s := range cfg.Secrets {
		secrets = append(secrets, []byte(s))
	}
	return &Codec{
		name:    cfg.Name,
		domain:  cfg.Domain,
		secure:  cfg.Secure,
		secrets: secrets,
		now:     time.Now,
	}
}

// Name returns the cookie name
func (c *Codec) Name() string {
	return c.name
}

// Cookie builds the Set-Cookie value for a provider session
func (c *Codec) Cookie(s *domain.Session) (*http.Cookie, error) {
	if s == nil || s.AccessToken == "" {
		return nil, errors.New("session has no access token")
	}

	value, err := c.encode(s.AccessToken)
	if err != nil {
		return nil, err
	}

	cookie := c.base()
	cookie.Value = value

	expiresAt, maxAge := c.lifetime(s)
	if !expiresAt.IsZero() {
		cookie.Expires = expiresAt.UTC()
	}
	if maxAge > 0 {
		cookie.MaxAge = int(maxAge / time.Second)
	}
	return cookie, nil
}

// Write sets the session cookie on the response
func (c *Codec) Write(w http.ResponseWriter, s *domain.Session) error {
	cookie, err := c.Cookie(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, cookie)
	return nil
}

// Read returns the access token stored in the request's session cookie
func (c *Codec) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(c.name)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return "", ErrNoCookie
	}
	return c.decode(strings.TrimSpace(cookie.Value))
}

// Clear expires the session cookie
func (c *Codec) Clear(w http.ResponseWriter) {
	cookie := c.base()
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0).UTC()
	http.SetCookie(w, cookie)
}

func (c *Codec) base() *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Path:     "/",
		Domain:   c.domain,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// lifetime prefers the provider's numbers and falls back to the token's exp claim
func (c *Codec) lifetime(s *domain.Session) (time.Time, time.Duration) {
	expiresAt := s.ExpiresAt
	maxAge := s.MaxAge()

	if expiresAt.IsZero() && maxAge <= 0 {
		if exp, ok := ExpiryFromToken(s.AccessToken); ok {
			expiresAt = exp
		}
	}
	if expiresAt.IsZero() && maxAge > 0 {
		expiresAt = c.now().Add(maxAge)
	}
	if maxAge <= 0 && !expiresAt.IsZero() {
		maxAge = expiresAt.Sub(c.now())
	}
	return expiresAt, maxAge
}

func (c *Codec) encode(accessToken string) (string, error) {
	raw, err := json.Marshal(accessToken)
	if err != nil {
		return "", err
	}
	value := base64.StdEncoding.EncodeToString(raw)
	if len(c.secrets) == 0 {
		return value, nil
	}
	return value + "." + sign(value, c.secrets[0]), nil
}

func (c *Codec) decode(cookieValue string) (string, error) {
	value := cookieValue
	if len(c.secrets) > 0 {
		idx := strings.LastIndex(cookieValue, ".")
		if idx < 0 {
			return "", ErrInvalidCookie
		}
		value = cookieValue[:idx]
		if !c.verify(value, cookieValue[idx+1:]) {
			return "", ErrInvalidCookie
		}
	}

	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", ErrInvalidCookie
	}
	var accessToken string
	if err := json.Unmarshal(raw, &accessToken); err != nil || accessToken == "" {
		return "", ErrInvalidCookie
	}
	return accessToken, nil
}

func (c *Codec) verify(value, signature string) bool {
	for _, secret := range c.secrets {
		if hmac.Equal([]byte(sign(value, secret)), []byte(signature)) {
			return true
		}
	}
	return false
}

func sign(value string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(value))
	return base64.RawStdEncoding.EncodeToString(mac.Sum(nil))
}

// ExpiryFromToken reads the exp claim of a JWT without verifying it. The
// provider already vouched for the token; only its lifetime is needed here.
func ExpiryFromToken(accessToken string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, false
	}
	switch exp := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0), true
	case json.Number:
		v, err := exp.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(v, 0), true
	default:
		return time.Time{}, false
	}
}
