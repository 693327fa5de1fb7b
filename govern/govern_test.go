package govern

import (
	"errors"
	"strings"
	"testing"
)

func TestNewLimiterDefaults(t *testing.T) {
	if got := NewLimiter(0).MaxBytes(); got != DefaultMaxKB*1024 {
		t.Errorf("MaxBytes = %d, want %d", got, DefaultMaxKB*1024)
	}
	if got := NewLimiter(-5).MaxBytes(); got != DefaultMaxKB*1024 {
		t.Errorf("MaxBytes = %d, want %d", got, DefaultMaxKB*1024)
	}
	if got := NewLimiter(25).MaxBytes(); got != 25*1024 {
		t.Errorf("MaxBytes = %d, want %d", got, 25*1024)
	}
}

func TestGuardPassesSmallResponse(t *testing.T) {
	l := NewLimiter(1)

	text, err := l.Guard(map[string]string{"status": "ok"})
	if err != nil {
		t.Fatalf("Guard: %v", err)
	}
	if !strings.Contains(text, `"status": "ok"`) {
		t.Errorf("text = %q, want indented JSON", text)
	}
}

func TestGuardBoundary(t *testing.T) {
	l := NewLimiter(1)

	// A JSON string of n characters serializes to n+2 bytes.
	if _, err := l.Guard(strings.Repeat("x", 1022)); err != nil {
		t.Errorf("Guard at exactly the limit: %v", err)
	}

	_, err := l.Guard(strings.Repeat("x", 1023))
	if err == nil {
		t.Fatal("Guard one byte over the limit: got nil error")
	}
	var tooLarge *TooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("error is %T, want *TooLargeError", err)
	}
	if tooLarge.Size != 1025 || tooLarge.Limit != 1024 {
		t.Errorf("TooLargeError = %+v", tooLarge)
	}
	if !strings.Contains(err.Error(), "refine the query") {
		t.Errorf("message = %q, want guidance", err.Error())
	}
}

func TestGuardSerializationFailure(t *testing.T) {
	l := NewLimiter(1)
	if _, err := l.Guard(func() {}); err == nil {
		t.Error("Guard of an unserializable value: got nil error")
	}
}
