package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-for-jwt-signing-0123456789"

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("alice", RoleOperator, testSecret, 15*time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("token %q is not a compact JWT", token)
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "alice" || claims.Role != RoleOperator || claims.Issuer != Issuer {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ID == "" {
		t.Error("JTI (ID) should not be empty")
	}

	diff := time.Until(claims.ExpiresAt.Time) - 15*time.Minute
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("expiry off by %v", diff)
	}
}

func TestGenerateToken_DefaultTTL(t *testing.T) {
	token, err := GenerateToken("alice", RoleViewer, testSecret, 0)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatal(err)
	}
	diff := time.Until(claims.ExpiresAt.Time) - defaultTTL
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("default TTL off by %v", diff)
	}
}

func TestGenerateToken_Errors(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		role    Role
		secret  string
		wantErr error
	}{
		{"missing subject", "", RoleViewer, testSecret, ErrTokenInvalid},
		{"unknown role", "alice", Role("owner"), testSecret, ErrInvalidRole},
		{"short secret", "alice", RoleViewer, "too-short", ErrWeakSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateToken(tt.subject, tt.role, tt.secret, time.Minute)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("GenerateToken() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// signRaw signs arbitrary claims so malformed tokens can be tested.
func signRaw(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	return s
}

func TestParseToken_Rejects(t *testing.T) {
	now := time.Now()
	valid := func() CustomClaims {
		return CustomClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    Issuer,
				Subject:   "alice",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
			Role: RoleViewer,
		}
	}

	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))

	noExpiry := valid()
	noExpiry.ExpiresAt = nil

	wrongIssuer := valid()
	wrongIssuer.Issuer = "someone-else"

	noSubject := valid()
	noSubject.Subject = ""

	badRole := valid()
	badRole.Role = "owner"

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty", "", ErrTokenInvalid},
		{"garbage", "not-a-valid-jwt", ErrTokenInvalid},
		{"two segments", "abc.def", ErrTokenInvalid},
		{"wrong secret", signRaw(t, jwt.SigningMethodHS256, []byte("another-secret-that-is-long-enough!!"), valid()), ErrTokenInvalid},
		{"alg none", signRaw(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid()), ErrTokenInvalid},
		{"HS512", signRaw(t, jwt.SigningMethodHS512, []byte(testSecret), valid()), ErrTokenInvalid},
		{"expired", signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), expired), ErrTokenExpired},
		{"no expiry", signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), noExpiry), ErrTokenInvalid},
		{"wrong issuer", signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), wrongIssuer), ErrTokenInvalid},
		{"no subject", signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), noSubject), ErrTokenInvalid},
		{"unknown role", signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), badRole), ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, testSecret)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseToken() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
