package object

import (
	"errors"
	"strings"
	"testing"
)

func TestNamespaceIsStableHex(t *testing.T) {
	got := Namespace("THE-CV-ID")
	if got != Namespace("THE-CV-ID") {
		t.Fatalf("expected stable namespace")
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("namespace contains non-hex character: %c", ch)
		}
	}
}

func TestNewKey(t *testing.T) {
	first, err := NewKey("cv-1", "cv.odt")
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	second, _ := NewKey("cv-1", "cv.odt")
	if first == second {
		t.Fatalf("expected distinct keys")
	}
	if !strings.HasPrefix(first, Namespace("cv-1")+"/") || !strings.HasSuffix(first, "_cv.odt") {
		t.Fatalf("unexpected key %q", first)
	}

	for _, name := range []string{"", "  ", "../cv.odt", "a/../b"} {
		if _, err := NewKey("cv-1", name); !errors.Is(err, ErrInvalidFileName) {
			t.Fatalf("name %q: expected ErrInvalidFileName, got %v", name, err)
		}
	}
	key, err := NewKey("cv-1", "dir/cv.odt")
	if err != nil || !strings.HasSuffix(key, "_dir_cv.odt") {
		t.Fatalf("expected separators replaced, got %q (%v)", key, err)
	}
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name string
		file string
		head []byte
		want string
	}{
		{name: "odt by extension", file: "cv.odt", head: []byte("PK\x03\x04"), want: "application/vnd.oasis.opendocument.text"},
		{name: "upper case extension", file: "CV.ODT", head: nil, want: "application/vnd.oasis.opendocument.text"},
		{name: "sniffed zip", file: "cv", head: []byte("PK\x03\x04"), want: "application/zip"},
		{name: "sniffed text", file: "notes", head: []byte("hello"), want: "text/plain; charset=utf-8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectContentType(tt.file, tt.head); got != tt.want {
				t.Fatalf("DetectContentType(%q) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}
