package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestIssuer() *Issuer {
	return NewIssuer("test-secret", 5*time.Minute, 24*time.Hour)
}

func TestIssuePair(t *testing.T) {
	iss := newTestIssuer()
	fixed := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	iss.now = func() time.Time { return fixed }

	pair, err := iss.IssuePair(42)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	if !pair.AccessExpiresAt.Equal(fixed.Add(5 * time.Minute)) {
		t.Errorf("AccessExpiresAt = %v", pair.AccessExpiresAt)
	}
	if !pair.RefreshExpiresAt.Equal(fixed.Add(24 * time.Hour)) {
		t.Errorf("RefreshExpiresAt = %v", pair.RefreshExpiresAt)
	}

	access, err := iss.Parse(pair.Access, TypeAccess)
	if err != nil {
		t.Fatalf("Parse access: %v", err)
	}
	if access.UserID != 42 || access.Subject != "42" {
		t.Errorf("access claims = %+v", access)
	}

	refresh, err := iss.Parse(pair.Refresh, TypeRefresh)
	if err != nil {
		t.Fatalf("Parse refresh: %v", err)
	}
	if refresh.ID != pair.RefreshID {
		t.Errorf("refresh jti = %q, want %q", refresh.ID, pair.RefreshID)
	}
	if access.ID == refresh.ID {
		t.Error("access and refresh tokens must have distinct ids")
	}
}

func TestParse_WrongType(t *testing.T) {
	iss := newTestIssuer()
	pair, err := iss.IssuePair(1)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	if _, err := iss.Parse(pair.Access, TypeRefresh); !errors.Is(err, ErrWrongType) {
		t.Errorf("access as refresh: got %v, want ErrWrongType", err)
	}
	if _, err := iss.Parse(pair.Refresh, TypeAccess); !errors.Is(err, ErrWrongType) {
		t.Errorf("refresh as access: got %v, want ErrWrongType", err)
	}
}

func TestParse_Expired(t *testing.T) {
	iss := newTestIssuer()
	issued := time.Now().Add(-time.Hour)
	iss.now = func() time.Time { return issued }

	signed, _, err := iss.IssueAccess(1)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	iss.now = time.Now
	if _, err := iss.Parse(signed, TypeAccess); !errors.Is(err, ErrExpired) {
		t.Errorf("got %v, want ErrExpired", err)
	}
}

func TestParse_Invalid(t *testing.T) {
	iss := newTestIssuer()
	pair, _ := iss.IssuePair(1)

	other := NewIssuer("another-secret", time.Minute, time.Hour)
	noneToken, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID:    1,
		TokenType: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"tampered payload", tamper(pair.Access)},
		{"alg none", noneToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := iss.Parse(tt.token, TypeAccess); !errors.Is(err, ErrInvalid) {
				t.Errorf("got %v, want ErrInvalid", err)
			}
		})
	}

	t.Run("foreign secret", func(t *testing.T) {
		if _, err := other.Parse(pair.Access, TypeAccess); !errors.Is(err, ErrInvalid) {
			t.Errorf("got %v, want ErrInvalid", err)
		}
	})
}

// tamper flips one character in the payload segment.
func tamper(tok string) string {
	parts := strings.Split(tok, ".")
	b := []byte(parts[1])
	if b[0] == 'A' {
		b[0] = 'B'
	} else {
		b[0] = 'A'
	}
	parts[1] = string(b)
	return strings.Join(parts, ".")
}
