// Package eosname implements the EOSIO-style base32 account-name codec
// used by source-contract/account fields when a descriptor names them by
// string (spec.md §4.7, §8 scenario 5). Grounded on no single teacher
// file — a narrow, ledger-specific bit-packing routine built directly
// from the worked examples of spec.md §8.5.
package eosname

// charmap is the 32-symbol alphabet EOSIO packs five bits per character
// into, '.' included as the 13th-character terminator/separator symbol.
const charmap = ".12345abcdefghijklmnopqrstuvwxyz"

// MaxLength is the longest account name the encoding accepts; only the
// first 12 characters contribute a full 5-bit symbol, the 13th
// contributes 4 bits.
const MaxLength = 13

// NameToValue converts an EOSIO-style account name into its canonical
// uint64 encoding. Returns 0 for a malformed name (too long, or a 13th
// character not representable in the truncated 4-bit final symbol —
// spec.md §8 scenario 5's "13-character name whose 13th character is
// after 'j'" case).
func NameToValue(name string) uint64 {
	if len(name) > MaxLength {
		return 0
	}

	var value uint64
	for i := 0; i < MaxLength; i++ {
		var bits uint64
		if i < len(name) {
			sym, ok := symbolValue(name[i])
			if !ok {
				return 0
			}
			bits = sym
			if i == MaxLength-1 {
				// The 13th character only contributes its low 4 bits.
				if bits > 0x0f {
					return 0
				}
				bits &= 0x0f
			}
		}
		shift := uint(4)
		if i < MaxLength-1 {
			shift = 5
		}
		value <<= shift
		value |= bits
	}
	return value
}

// symbolValue returns a character's position in charmap, or false if the
// character is not a valid account-name symbol.
func symbolValue(c byte) (uint64, bool) {
	for i := 0; i < len(charmap); i++ {
		if charmap[i] == c {
			return uint64(i), true
		}
	}
	return 0, false
}

// ValueToName reverses NameToValue, rendering the canonical uint64
// encoding back into its account-name string with trailing '.'
// placeholders trimmed.
func ValueToName(value uint64) string {
	buf := make([]byte, MaxLength)
	v := value
	for i := MaxLength - 1; i >= 0; i-- {
		var bits uint64
		if i == MaxLength-1 {
			bits = v & 0x0f
			v >>= 4
		} else {
			bits = v & 0x1f
			v >>= 5
		}
		buf[i] = charmap[bits]
	}
	name := string(buf)
	for len(name) > 0 && name[len(name)-1] == '.' {
		name = name[:len(name)-1]
	}
	return name
}
