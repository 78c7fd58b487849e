package id

import (
	"regexp"
	"testing"

	"github.com/google/uuid"
)

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

func TestNewID32(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		got := NewID32()
		if !reHex32.MatchString(got) {
			t.Fatalf("not 32-char lowercase hex: %q", got)
		}
		if seen[got] {
			t.Fatalf("duplicate id %q after %d draws", got, i)
		}
		seen[got] = true

		u, err := uuid.Parse(got)
		if err != nil || u.Version() != 4 {
			t.Fatalf("%q is not a v4 uuid: %v", got, err)
		}
	}
}

func TestLoanCode(t *testing.T) {
	cases := map[uint64]string{
		1:       "LN000001",
		42:      "LN000042",
		999999:  "LN999999",
		1234567: "LN1234567",
	}
	for seq, want := range cases {
		if got := LoanCode(seq); got != want {
			t.Fatalf("LoanCode(%d) = %q, want %q", seq, got, want)
		}
	}
}
