package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := GCodeParseError(12, "unexpected word")
	s := err.Error()
	if !strings.Contains(s, "GCODE_PARSE") {
		t.Errorf("error string missing code: %q", s)
	}
	if !strings.Contains(s, "line 12") {
		t.Errorf("error string missing line number: %q", s)
	}
}

func TestConfigErrorString(t *testing.T) {
	err := ConfigValidationError("machine", "accel_x", "must be > 0")
	s := err.Error()
	if !strings.Contains(s, "machine") || !strings.Contains(s, "accel_x") {
		t.Errorf("error string missing section/option: %q", s)
	}
}

func TestWrapUnwrap(t *testing.T) {
	base := stderrors.New("underlying")
	err := Wrap(base, ErrRuntime, "wrapped")

	if !stderrors.Is(err, base) {
		t.Error("wrapped error should match underlying via errors.Is")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(ArcOffsetError(3)); got != ErrArcOffset {
		t.Errorf("CodeOf = %v, want %v", got, ErrArcOffset)
	}
	if got := CodeOf(stderrors.New("plain")); got != ErrRuntime {
		t.Errorf("CodeOf(plain) = %v, want %v", got, ErrRuntime)
	}
}
