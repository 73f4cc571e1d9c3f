package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string, method jwt.SigningMethod) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestValidateToken(t *testing.T) {
	v := NewJWTValidator(testSecret)
	tokenString := signToken(t, jwt.MapClaims{
		"sub":      "user-1",
		"username": "alice",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}, testSecret, jwt.SigningMethodHS256)

	claims, err := v.ValidateToken(tokenString)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.GetUserID() != "user-1" {
		t.Errorf("user id = %q", claims.GetUserID())
	}
	if claims.GetUsername() != "alice" {
		t.Errorf("username = %q", claims.GetUsername())
	}
}

func TestValidateTokenExpired(t *testing.T) {
	v := NewJWTValidator(testSecret)
	tokenString := signToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}, testSecret, jwt.SigningMethodHS256)

	if _, err := v.ValidateToken(tokenString); err != ErrExpiredToken {
		t.Errorf("err = %v, want ErrExpiredToken", err)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	v := NewJWTValidator(testSecret)
	tokenString := signToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, "other-secret", jwt.SigningMethodHS256)

	if _, err := v.ValidateToken(tokenString); err != ErrInvalidToken {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	v := NewJWTValidator(testSecret)
	if _, err := v.ValidateToken("not.a.token"); err != ErrInvalidToken {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}
