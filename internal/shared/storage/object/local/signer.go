package local

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrBadSignature is returned when a signed audio URL fails verification.
var ErrBadSignature = errors.New("invalid or expired signature")

// Signer issues and verifies expiring links for locally stored objects.
type Signer struct {
	secret  []byte
	baseURL string
}

// NewSigner returns a Signer producing links under {baseURL}/api/v1/audio/.
func NewSigner(baseURL, secret string) *Signer {
	return &Signer{secret: []byte(secret), baseURL: strings.TrimRight(baseURL, "/")}
}

// URL returns a link to key that stays valid until expires.
func (s *Signer) URL(key string, expires time.Time) string {
	exp := expires.Unix()
	segs := strings.Split(key, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(exp, 10))
	q.Set("sig", s.sign(key, exp))
	return s.baseURL + "/api/v1/audio/" + strings.Join(segs, "/") + "?" + q.Encode()
}

// Verify checks a key/expires/sig triple taken from a request.
func (s *Signer) Verify(key, expires, sig string, now time.Time) error {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return ErrBadSignature
	}
	if now.Unix() > exp {
		return ErrBadSignature
	}
	want := s.sign(key, exp)
	if !hmac.Equal([]byte(want), []byte(sig)) {
		return ErrBadSignature
	}
	return nil
}

func (s *Signer) sign(key string, exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(key))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(strconv.FormatInt(exp, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
