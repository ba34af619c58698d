package types

// Note plaintext/ciphertext sizes, per spec.md §4.3/§6.
const (
	// NotePlaintextSize is the version byte plus the note's semantic fields:
	// header(8) + diversifier(11) + d1/d2/sc/nft(4x8) + rho(32) + rseed(32)
	// + memo(512) + version(1) = 628. This is the field-by-field breakdown
	// a concrete Note encoding must satisfy; the §6 wire contract's 627
	// figure undercounts it by one byte, so the per-field sum is treated as
	// load-bearing here (see DESIGN.md).
	NotePlaintextSize = 628
	// EncCiphertextSize is the note plaintext AEAD-encrypted with a 16-byte tag.
	EncCiphertextSize = NotePlaintextSize + 16 // 644
	// OutPlaintextSize is the outgoing-recovery payload size before the tag:
	// the recipient's raw transmission key (32) plus the sender's ephemeral
	// scalar (32).
	OutPlaintextSize = 64
	// OutCiphertextSize is the outgoing-recovery payload AEAD-encrypted.
	OutCiphertextSize = OutPlaintextSize + 16 // 80
	// EphemeralKeySize is the size of the per-note ephemeral public key.
	EphemeralKeySize = 32
)

// TransmittedNoteCiphertext is the wire form of an encrypted note: the
// ephemeral public key, the recipient-decryptable plaintext ciphertext,
// and the sender-decryptable outgoing-recovery ciphertext.
type TransmittedNoteCiphertext struct {
	EphemeralKey [EphemeralKeySize]byte
	Enc          [EncCiphertextSize]byte
	Out          [OutCiphertextSize]byte
}

// Size returns the total on-wire size of the ciphertext (32+644+80=756).
func (c *TransmittedNoteCiphertext) Size() int {
	return EphemeralKeySize + EncCiphertextSize + OutCiphertextSize
}
