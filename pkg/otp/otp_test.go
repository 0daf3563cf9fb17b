package otp

import (
	"testing"
	"time"
)

// Test vectors from RFC 6238 appendix B (SHA1), truncated to 6 digits where noted.
func TestCode(t *testing.T) {
	const secret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ" // "12345678901234567890"
	tests := []struct {
		secret string
		unix   int64
		expect string
	}{
		{secret, 59, "287082"},
		{secret, 1111111109, "081804"},
		{secret, 1234567890, "005924"},
		{"gezd gnbv gy3t qojq gezd gnbv gy3t qojq", 59, "287082"},
		{"otpauth://totp/x?secret=" + secret + "&digits=8", 59, "94287082"},
		{"otpauth://totp/x?secret=" + secret + "&digits=8", 2000000000, "69279037"},
	}
	for _, tt := range tests {
		got, err := Code(tt.secret, time.Unix(tt.unix, 0))
		if err != nil {
			t.Fatalf("Code(%q, %d): %v", tt.secret, tt.unix, err)
		}
		if got != tt.expect {
			t.Errorf("Code(%q, %d) = %s, want %s", tt.secret, tt.unix, got, tt.expect)
		}
	}
}

func TestCodeInvalidSecret(t *testing.T) {
	for _, s := range []string{"", "   ", "not base32!", "otpauth://totp/x"} {
		if _, err := Code(s, time.Now()); err == nil {
			t.Errorf("expected an error for %q", s)
		}
	}
}
