package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/starterkit/internal/config"
	"github.com/starterkit/internal/domain"
)

var fixedNow = time.Unix(1700000000, 0)

func newTestCodec(secrets ...string) *Codec {
	codec := NewCodec(config.CookieConfig{Name: "sb_token", Secrets: secrets})
	codec.now = func() time.Time { return fixedNow }
	return codec
}

func writeCookie(t *testing.T, codec *Codec, s *domain.Session) *http.Cookie {
	t.Helper()

	rec := httptest.NewRecorder()
	if err := codec.Write(rec, s); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("Expected 1 cookie, got %d", len(cookies))
	}
	return cookies[0]
}

func readCookie(codec *Codec, cookie *http.Cookie) (string, error) {
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return codec.Read(req)
}

func TestCookieRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		secrets []string
	}{
		{"unsigned", nil},
		{"signed", []string{"s3cr3t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := newTestCodec(tt.secrets...)
			cookie := writeCookie(t, codec, &domain.Session{
				AccessToken: "access-abc",
				ExpiresIn:   3600,
				ExpiresAt:   fixedNow.Add(time.Hour),
			})

			if cookie.Name != "sb_token" {
				t.Errorf("Expected cookie name sb_token, got %s", cookie.Name)
			}
			if !cookie.HttpOnly || cookie.Path != "/" || cookie.SameSite != http.SameSiteLaxMode {
				t.Errorf("Unexpected cookie attributes %+v", cookie)
			}
			if cookie.MaxAge != 3600 {
				t.Errorf("Expected MaxAge 3600, got %d", cookie.MaxAge)
			}
			if !cookie.Expires.Equal(fixedNow.Add(time.Hour)) {
				t.Errorf("Expected Expires %s, got %s", fixedNow.Add(time.Hour), cookie.Expires)
			}
			if signed := strings.Contains(cookie.Value, "."); signed != (len(tt.secrets) > 0) {
				t.Errorf("Unexpected signature presence in %q", cookie.Value)
			}

			got, err := readCookie(codec, cookie)
			if err != nil {
				t.Fatalf("Read() error: %v", err)
			}
			if got != "access-abc" {
				t.Errorf("Expected access-abc, got %s", got)
			}
		})
	}
}

func TestCookieValueFormat(t *testing.T) {
	codec := newTestCodec()
	cookie := writeCookie(t, codec, &domain.Session{AccessToken: "abc", ExpiresIn: 60})

	// base64 of the JSON string "abc"
	if cookie.Value != "ImFiYyI=" {
		t.Errorf("Expected ImFiYyI=, got %s", cookie.Value)
	}
}

func TestCookieRejectsTampering(t *testing.T) {
	codec := newTestCodec("s3cr3t")
	cookie := writeCookie(t, codec, &domain.Session{AccessToken: "access-abc", ExpiresIn: 60})

	tests := []struct {
		name  string
		value string
	}{
		{"no signature", strings.SplitN(cookie.Value, ".", 2)[0]},
		{"wrong signature", strings.SplitN(cookie.Value, ".", 2)[0] + ".AAAA"},
		{"swapped payload", "ImV2aWwi." + strings.SplitN(cookie.Value, ".", 2)[1]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readCookie(codec, &http.Cookie{Name: "sb_token", Value: tt.value})
			if !errors.Is(err, ErrInvalidCookie) {
				t.Errorf("Expected ErrInvalidCookie, got %v", err)
			}
		})
	}
}

func TestCookieSecretRotation(t *testing.T) {
	old := newTestCodec("old-secret")
	cookie := writeCookie(t, old, &domain.Session{AccessToken: "access-abc", ExpiresIn: 60})

	rotated := newTestCodec("new-secret", "old-secret")
	if got, err := readCookie(rotated, cookie); err != nil || got != "access-abc" {
		t.Errorf("Expected rotated codec to accept old cookie, got %q, %v", got, err)
	}

	dropped := newTestCodec("new-secret")
	if _, err := readCookie(dropped, cookie); !errors.Is(err, ErrInvalidCookie) {
		t.Errorf("Expected cookie signed with a dropped secret to fail, got %v", err)
	}
}

func TestCookieReadErrors(t *testing.T) {
	codec := newTestCodec()

	if _, err := readCookie(codec, nil); !errors.Is(err, ErrNoCookie) {
		t.Errorf("Expected ErrNoCookie, got %v", err)
	}
	if _, err := readCookie(codec, &http.Cookie{Name: "sb_token", Value: "!!not-base64"}); !errors.Is(err, ErrInvalidCookie) {
		t.Errorf("Expected ErrInvalidCookie for bad base64, got %v", err)
	}
}

func TestCookieLifetimeFallbacks(t *testing.T) {
	exp := fixedNow.Add(30 * time.Minute)
	jwtToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-123",
		"exp": exp.Unix(),
	}).SignedString([]byte("provider-secret"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	tests := []struct {
		name        string
		session     *domain.Session
		wantExpires time.Time
		wantMaxAge  int
	}{
		{
			name:        "expires_in only",
			session:     &domain.Session{AccessToken: "opaque", ExpiresIn: 120},
			wantExpires: fixedNow.Add(2 * time.Minute),
			wantMaxAge:  120,
		},
		{
			name:        "expires_at only",
			session:     &domain.Session{AccessToken: "opaque", ExpiresAt: fixedNow.Add(time.Minute)},
			wantExpires: fixedNow.Add(time.Minute),
			wantMaxAge:  60,
		},
		{
			name:        "exp claim",
			session:     &domain.Session{AccessToken: jwtToken},
			wantExpires: exp,
			wantMaxAge:  1800,
		},
		{
			name:    "no expiry anywhere",
			session: &domain.Session{AccessToken: "opaque"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cookie, err := newTestCodec().Cookie(tt.session)
			if err != nil {
				t.Fatalf("Cookie() error: %v", err)
			}
			if !cookie.Expires.Equal(tt.wantExpires) {
				t.Errorf("Expected Expires %s, got %s", tt.wantExpires, cookie.Expires)
			}
			if cookie.MaxAge != tt.wantMaxAge {
				t.Errorf("Expected MaxAge %d, got %d", tt.wantMaxAge, cookie.MaxAge)
			}
		})
	}
}

func TestCookieRequiresToken(t *testing.T) {
	if _, err := newTestCodec().Cookie(&domain.Session{}); err == nil {
		t.Error("Expected error for session without access token")
	}
}

func TestClear(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestCodec().Clear(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("Expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].MaxAge != -1 || cookies[0].Value != "" {
		t.Errorf("Expected expired empty cookie, got %+v", cookies[0])
	}
}
