package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// testKeyID — идентификатор ключа для тестов.
const testKeyID = "test-key-mr"

// testIssuer — ожидаемый issuer токенов в тестах.
const testIssuer = "https://idp.test"

// generateTestKey генерирует RSA ключ для тестов.
func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

// buildJWKSetJSON строит JWKS JSON из RSA публичного ключа.
func buildJWKSetJSON(pub *rsa.PublicKey, kid string) json.RawMessage {
	nB64 := base64.RawURLEncoding.EncodeToString(pub.N.Bytes())
	eB64 := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes())

	jwks := map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"kid": kid,
				"use": "sig",
				"alg": "RS256",
				"n":   nB64,
				"e":   eB64,
			},
		},
	}

	data, _ := json.Marshal(jwks)
	return data
}

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestJWTAuth создаёт JWTAuth с локальным JWKS (без сети).
func newTestJWTAuth(t *testing.T, key *rsa.PrivateKey) *JWTAuth {
	t.Helper()
	jwksJSON := buildJWKSetJSON(&key.PublicKey, testKeyID)
	kf, err := keyfunc.NewJWKSetJSON(jwksJSON)
	if err != nil {
		t.Fatalf("не удалось создать keyfunc: %v", err)
	}
	return NewJWTAuthWithKeyfunc(kf, testIssuer, testLogger())
}

// generateToken генерирует JWT в формате GoTrue-совместимого IdP.
func generateToken(t *testing.T, key *rsa.PrivateKey, sub, email, sessionID, issuer string, expired bool) string {
	t.Helper()

	exp := time.Now().Add(time.Hour)
	if expired {
		exp = time.Now().Add(-time.Hour)
	}

	claims := jwt.MapClaims{
		"sub":        sub,
		"email":      email,
		"session_id": sessionID,
		"iss":        issuer,
		"exp":        jwt.NewNumericDate(exp),
		"iat":        jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return tokenStr
}

func doRequest(auth *JWTAuth, token string, inner http.HandlerFunc) *httptest.ResponseRecorder {
	handler := auth.Middleware()(inner)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/correspondence", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthValidToken(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	tokenStr := generateToken(t, key,
		"2fd4e1c6-7a2d-4f3a-9e1b-111111111111", "ana@botanico.test", "sess-1",
		testIssuer, false)

	rec := doRequest(auth, tokenStr, func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			t.Fatal("claims не найдены в контексте")
		}
		if claims.Subject != "2fd4e1c6-7a2d-4f3a-9e1b-111111111111" {
			t.Errorf("неверный sub: %s", claims.Subject)
		}
		if claims.Email != "ana@botanico.test" {
			t.Errorf("неверный email: %s", claims.Email)
		}
		if claims.SessionID != "sess-1" {
			t.Errorf("неверный session_id: %s", claims.SessionID)
		}
		if claims.Token != tokenStr {
			t.Error("в claims должен сохраняться исходный токен")
		}
		w.WriteHeader(http.StatusOK)
	})

	if rec.Code != http.StatusOK {
		t.Errorf("ожидался статус 200, получен %d, тело: %s", rec.Code, rec.Body.String())
	}
}

func TestJWTAuthMissingHeader(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	rec := doRequest(auth, "", func(w http.ResponseWriter, _ *http.Request) {
		t.Error("обработчик не должен вызываться без токена")
	})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", rec.Code)
	}
}

func TestJWTAuthExpiredToken(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	tokenStr := generateToken(t, key, "user-1", "ana@botanico.test", "sess-1",
		testIssuer, true)

	rec := doRequest(auth, tokenStr, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("обработчик не должен вызываться с просроченным токеном")
	})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", rec.Code)
	}
}

func TestJWTAuthWrongIssuer(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	tokenStr := generateToken(t, key, "user-1", "ana@botanico.test", "sess-1",
		"https://otro-idp.test", false)

	rec := doRequest(auth, tokenStr, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("обработчик не должен вызываться с чужим issuer")
	})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", rec.Code)
	}
}

func TestJWTAuthWrongKey(t *testing.T) {
	key := generateTestKey(t)
	otherKey := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	tokenStr := generateToken(t, otherKey, "user-1", "ana@botanico.test", "sess-1",
		testIssuer, false)

	rec := doRequest(auth, tokenStr, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("обработчик не должен вызываться с токеном, подписанным чужим ключом")
	})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", rec.Code)
	}
}

func TestJWTAuthRejectsHS256(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	// Симметричная подпись не входит в список допустимых алгоритмов.
	claims := jwt.MapClaims{
		"sub": "user-1",
		"iss": testIssuer,
		"exp": jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = testKeyID
	tokenStr, err := token.SignedString([]byte("secreto"))
	if err != nil {
		t.Fatal(err)
	}

	rec := doRequest(auth, tokenStr, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("обработчик не должен вызываться с HS256-токеном")
	})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", rec.Code)
	}
}

func TestJWTAuthMalformedHeader(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("обработчик не должен вызываться с неверным заголовком")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/correspondence", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", rec.Code)
	}
}
