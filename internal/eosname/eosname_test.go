package eosname

import "testing"

func TestNameToValueWorkedExamples(t *testing.T) {
	cases := []struct {
		name string
		want uint64
	}{
		{"eosio", 6138663577826885632},
		{"eosio.msig", 6138663587900751872},
		{"eosio.token", 6138663591592764928},
		{"mschoenebeck", 10813382581022265600},
	}
	for _, c := range cases {
		if got := NameToValue(c.name); got != c.want {
			t.Errorf("NameToValue(%q) = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestNameToValueInvalidThirteenthCharacter(t *testing.T) {
	// The 13th character must fit in 4 bits (positions '.' through 'j');
	// anything from 'k' onward overflows and the name is invalid.
	name := "1111111111111"[:12] + "k"
	if got := NameToValue(name); got != 0 {
		t.Errorf("NameToValue(%q) = %d, want 0", name, got)
	}
}

func TestNameToValueTooLong(t *testing.T) {
	if got := NameToValue("12345678901234"); got != 0 {
		t.Errorf("NameToValue of a 14-character name = %d, want 0", got)
	}
}

func TestValueToNameRoundTrip(t *testing.T) {
	for _, name := range []string{"eosio", "eosio.token", "mschoenebeck"} {
		v := NameToValue(name)
		if got := ValueToName(v); got != name {
			t.Errorf("round trip of %q: ValueToName(NameToValue(...)) = %q", name, got)
		}
	}
}
