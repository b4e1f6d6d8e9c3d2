package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// DefaultTTL is the lifetime of tokens minted after Google login.
const DefaultTTL = 24 * time.Hour

// Claims represents the identity contained in a JWT. Sub is the owner id
// every note and recording is keyed by.
type Claims struct {
	Sub     string `json:"sub"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	Exp     int64  `json:"exp,omitempty"`
	Iat     int64  `json:"iat,omitempty"`
}

var (
	errMissingSecret = errors.New("jwt secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

type header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

var hs256Header = base64.RawURLEncoding.EncodeToString(mustJSON(header{Alg: "HS256", Typ: "JWT"}))

// Codec signs and verifies HS256 tokens with a shared secret.
type Codec struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

// Sign fills in iat and exp when unset and returns the compact token.
func (c Codec) Sign(claims Claims) (string, error) {
	if claims.Sub == "" {
		return "", errors.New("sub is required")
	}
	now := c.now().Unix()
	if claims.Iat == 0 {
		claims.Iat = now
	}
	if claims.Exp == 0 {
		ttl := c.TTL
		if ttl <= 0 {
			ttl = DefaultTTL
		}
		claims.Exp = now + int64(ttl/time.Second)
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	signingInput := hs256Header + "." + base64.RawURLEncoding.EncodeToString(payload)
	return signingInput + "." + c.sign(signingInput), nil
}

// Verify checks the algorithm, signature and expiry and returns the claims.
func (c Codec) Verify(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, ErrInvalidToken
	}

	var h header
	if raw, err := base64.RawURLEncoding.DecodeString(parts[0]); err != nil || json.Unmarshal(raw, &h) != nil || h.Alg != "HS256" {
		return Claims{}, ErrInvalidToken
	}
	if !hmac.Equal([]byte(parts[2]), []byte(c.sign(parts[0]+"."+parts[1]))) {
		return Claims{}, ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil || claims.Sub == "" {
		return Claims{}, ErrInvalidToken
	}
	if claims.Exp > 0 && c.now().Unix() > claims.Exp {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func (c Codec) sign(input string) string {
	mac := hmac.New(sha256.New, c.Secret)
	mac.Write([]byte(input))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (c Codec) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

// SignJWT signs claims with the secret from JWT_SECRET.
func SignJWT(claims Claims) (string, error) {
	codec, err := envCodec()
	if err != nil {
		return "", err
	}
	return codec.Sign(claims)
}

// VerifyJWT verifies a token against the secret from JWT_SECRET.
func VerifyJWT(token string) (Claims, error) {
	codec, err := envCodec()
	if err != nil {
		return Claims{}, err
	}
	return codec.Verify(token)
}

// envCodec reads JWT_SECRET. Outside production a fixed dev secret is used.
func envCodec() (Codec, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		switch strings.ToLower(strings.TrimSpace(os.Getenv("ENV"))) {
		case "production", "prod":
			return Codec{}, fmt.Errorf("%w: JWT_SECRET required in production", errMissingSecret)
		}
		secret = "dev-secret"
	}
	return Codec{Secret: []byte(secret)}, nil
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
