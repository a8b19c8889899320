package circulation_test

import (
	"testing"

	"github.com/thomian/circulation-engine/circulation"
)

// =============================================================================
// PARSING - Corrupted amounts must surface, never read as zero
// =============================================================================

func TestParseMoney_ValidAmounts(t *testing.T) {
	for _, s := range []string{"0", "0.50", "12.345", "-3.00"} {
		m, err := circulation.ParseMoney(s)
		if err != nil {
			t.Fatalf("ParseMoney(%q): unexpected error %v", s, err)
		}
		if got := m.Value.String(); got == "" {
			t.Fatalf("ParseMoney(%q): empty value", s)
		}
	}
}

func TestParseMoney_RejectsGarbage(t *testing.T) {
	// GIVEN: Strings that are not decimal amounts
	// WHEN: Parsing them
	// THEN: An error, never a silent zero

	for _, s := range []string{"", "abc", "1.2.3", "$5.00"} {
		m, err := circulation.ParseMoney(s)
		if err == nil {
			t.Fatalf("ParseMoney(%q): want error, got %s", s, m)
		}
	}
}

func TestMustParseMoney_PanicsOnGarbage(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustParseMoney on a bad string must panic")
		}
	}()
	circulation.MustParseMoney("not-money")
}
