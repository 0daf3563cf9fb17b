package otp

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	period        = 30
	defaultDigits = 6
)

var errEmptySecret = errors.New("empty TOTP secret")

// Code returns the time-based one-time password for secret at t (RFC 6238, HMAC-SHA1).
// secret is either a base32 key, optionally spaced in groups as authenticator apps show
// it, or an otpauth:// URI.
func Code(secret string, t time.Time) (string, error) {
	key, digits, err := parse(secret)
	if err != nil {
		return "", err
	}

	var counter [8]byte
	binary.BigEndian.PutUint64(counter[:], uint64(t.Unix()/period))
	mac := hmac.New(sha1.New, key)
	mac.Write(counter[:])
	sum := mac.Sum(nil)

	off := sum[len(sum)-1] & 0x0f
	bin := binary.BigEndian.Uint32(sum[off:off+4]) & 0x7fffffff

	mod := uint32(1)
	for i := 0; i < digits; i++ {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", digits, bin%mod), nil
}

func parse(secret string) ([]byte, int, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, 0, errEmptySecret
	}

	digits := defaultDigits
	if strings.HasPrefix(strings.ToLower(secret), "otpauth://") {
		u, err := url.Parse(secret)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid otpauth URI: %w", err)
		}
		if d, err := strconv.Atoi(u.Query().Get("digits")); err == nil && d > 0 {
			digits = d
		}
		secret = u.Query().Get("secret")
	}

	clean := strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(secret))
	clean = strings.TrimRight(clean, "=")
	if clean == "" {
		return nil, 0, errEmptySecret
	}
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(clean)
	if err != nil {
		return nil, 0, fmt.Errorf("TOTP secret is not base32: %w", err)
	}
	return key, digits, nil
}
