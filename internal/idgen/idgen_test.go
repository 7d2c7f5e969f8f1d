package idgen

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestUUIDv7(t *testing.T) {
	t.Parallel()

	gen := UUIDv7()
	a, b := gen(), gen()
	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
	u, err := uuid.Parse(a)
	if err != nil {
		t.Fatalf("uuid.Parse(%q): %v", a, err)
	}
	if u.Version() != 7 {
		t.Errorf("version = %d, want 7", u.Version())
	}
}

func TestSequence(t *testing.T) {
	t.Parallel()

	gen := Sequence("c")
	for i, want := range []string{"c1", "c2", "c3"} {
		if got := gen(); got != want {
			t.Errorf("call %d = %q, want %q", i, got, want)
		}
	}
}

func TestPrefixed(t *testing.T) {
	t.Parallel()

	got := Prefixed("cmp_", UUIDv7())()
	if !strings.HasPrefix(got, "cmp_") {
		t.Errorf("got %q, want cmp_ prefix", got)
	}
}
