package apperr

import (
	"errors"
	"strings"
	"testing"
)

func TestError_KindAndCauseReachable(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := New(ErrUpstream, "registry.search", cause)

	if !errors.Is(err, ErrUpstream) {
		t.Error("kind should match")
	}
	if !errors.Is(err, cause) {
		t.Error("cause should match")
	}
	if errors.Is(err, ErrCaptcha) {
		t.Error("unrelated kind should not match")
	}
	if got := err.Error(); got != "registry.search: registry upstream error: dial tcp: refused" {
		t.Errorf("Error() = %q", got)
	}
}

func TestError_RewrapKeepsInnerKind(t *testing.T) {
	inner := New(ErrCaptcha, "registry.search", errors.New("3 attempts"))
	outer := New(ErrAnalysis, "analysis.analyze", inner)

	if !errors.Is(outer, ErrAnalysis) || !errors.Is(outer, ErrCaptcha) {
		t.Fatalf("outer should match both kinds: %v", outer)
	}
	var ae *Error
	if !errors.As(outer, &ae) || ae.Kind != ErrAnalysis {
		t.Errorf("errors.As should find the outer error first")
	}
}

func TestMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{Validation("analysis.analyze", "marca is required"), "marca is required"},
		{New(ErrAnalysis, "a", New(ErrCaptcha, "r", nil)), "CAPTCHA"},
		{New(ErrAnalysis, "a", New(ErrTimeout, "r", nil)), "in time"},
		{New(ErrSession, "s", nil), "session"},
		{errors.New("boom"), "internal error"},
	}
	for _, c := range cases {
		if got := Message(c.err); !strings.Contains(got, c.want) {
			t.Errorf("Message(%v) = %q, want it to contain %q", c.err, got, c.want)
		}
	}
}
