package utils

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"INFO", logrus.InfoLevel},
		{"warning", logrus.WarnLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
	}
	for _, tt := range tests {
		if err := SetLogLevel(tt.in); err != nil {
			t.Fatalf("SetLogLevel(%q): %v", tt.in, err)
		}
		if Log.GetLevel() != tt.want {
			t.Fatalf("SetLogLevel(%q): got %v, want %v", tt.in, Log.GetLevel(), tt.want)
		}
	}
	if err := SetLogLevel("trace"); err == nil {
		t.Fatal("expected an error for an unsupported level")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 50); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("ñandú feliz", 5); got != "ñandú..." {
		t.Fatalf("got %q", got)
	}
}

func TestStoragePath(t *testing.T) {
	got, err := StoragePath("file", "rel/dir")
	if err != nil || !filepath.IsAbs(got) || !strings.HasSuffix(got, filepath.Join("rel", "dir")) {
		t.Fatalf("explicit path: %q %v", got, err)
	}
	got, err = StoragePath("sqlite", "")
	if err != nil || filepath.Base(got) != "followscope.sqlite" {
		t.Fatalf("default sqlite path: %q %v", got, err)
	}
	got, err = StoragePath("file", "")
	if err != nil || filepath.Base(got) != "followscope_data" {
		t.Fatalf("default file path: %q %v", got, err)
	}
}
