// Package crypt implements per-note encryption and trial decryption,
// spec.md §4.3. Grounded on the teacher's internal/zkp/pedersen.go curve
// conventions (gnark-crypto bn254 points, Marshal/Unmarshal round-trips)
// and primitives.ExpandKey/Encrypt for the AEAD layer, generalized into
// the Sapling-style diversified Diffie-Hellman note-encryption scheme
// spec.md's "fresh ephemeral key pair... DH with the recipient's
// transmission key... HKDF" prose names.
package crypt

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"

	"github.com/ccoin/core/internal/keys"
	"github.com/ccoin/core/internal/note"
	"github.com/ccoin/core/internal/primitives"
	"github.com/ccoin/core/pkg/types"
)

// plaintextVersion is the only version byte trial decryption accepts
// (spec.md §4.3).
const plaintextVersion = 0x02

// ErrNotForMe names the "ciphertext does not decrypt under the supplied
// viewing key" outcome. The trial-decryption functions below report that
// outcome as a false second return value and do not return this error.
var ErrNotForMe = errors.New("crypt: ciphertext does not match viewing key")

// Encrypt seals a note for on-wire transmission: an enc field decryptable
// by the recipient's incoming viewing key, and an out field decryptable
// by the sender's own outgoing viewing key for self-recovery.
func Encrypt(n note.Note, ovk keys.OutgoingViewingKey) (types.TransmittedNoteCiphertext, error) {
	esk := eskScalar(n)
	gd := keys.DiversifierBase(n.Recipient.D)

	var epkPoint bn254.G1Affine
	epkPoint.ScalarMultiplication(&gd, esk)
	epkBytes := epkPoint.Bytes()

	pkdPoint, err := keys.DecompressPoint(n.Recipient.Pkd)
	if err != nil {
		return types.TransmittedNoteCiphertext{}, err
	}
	var shared bn254.G1Affine
	shared.ScalarMultiplication(&pkdPoint, esk)
	sharedBytes := shared.Bytes()

	var ct types.TransmittedNoteCiphertext
	ct.EphemeralKey = epkBytes

	kEnc, err := primitives.ExpandKey(append(sharedBytes[:], epkBytes[:]...), "OrchardZ-KEnc", "")
	if err != nil {
		return types.TransmittedNoteCiphertext{}, err
	}
	plaintext := encodeNotePlaintext(n)
	enc, err := primitives.Encrypt(kEnc, plaintext[:])
	if err != nil {
		return types.TransmittedNoteCiphertext{}, err
	}
	copy(ct.Enc[:], enc)

	cm := n.Commitment()
	ovkBytes := ovk.Bytes()
	kOut, err := primitives.ExpandKey(ovkBytes[:], "OrchardZ-KOut", string(epkBytes[:])+string(cm[:]))
	if err != nil {
		return types.TransmittedNoteCiphertext{}, err
	}
	outPlain := encodeOutPlaintext(n)
	out, err := primitives.Encrypt(kOut, outPlain[:])
	if err != nil {
		return types.TransmittedNoteCiphertext{}, err
	}
	copy(ct.Out[:], out)

	return ct, nil
}

// TryDecryptAsReceiver attempts to decrypt the enc field with an incoming
// viewing key against one of the wallet's own addresses. It succeeds iff
// the AEAD opens, the version byte and diversifier match, the esk
// re-derived from rseed reproduces the advertised epk, and the recomputed
// commitment is non-empty. It does not compare that commitment with a
// ledger-recorded commitment. Callers trial this over every address they
// control, since a ciphertext carries no explicit recipient tag.
func TryDecryptAsReceiver(ivk keys.IncomingViewingKey, ct *types.TransmittedNoteCiphertext, addr types.Address) (note.Note, bool) {
	var epkPoint bn254.G1Affine
	if _, err := epkPoint.SetBytes(ct.EphemeralKey[:]); err != nil {
		return note.Note{}, false
	}
	var shared bn254.G1Affine
	shared.ScalarMultiplication(&epkPoint, ivk.Scalar())
	sharedBytes := shared.Bytes()

	kEnc, err := primitives.ExpandKey(append(sharedBytes[:], ct.EphemeralKey[:]...), "OrchardZ-KEnc", "")
	if err != nil {
		return note.Note{}, false
	}
	plaintext, err := primitives.Decrypt(kEnc, ct.Enc[:])
	if err != nil {
		return note.Note{}, false
	}

	n, ok := decodeNotePlaintext(plaintext, addr)
	if !ok {
		return note.Note{}, false
	}

	gd := keys.DiversifierBase(n.Recipient.D)
	var wantEpk bn254.G1Affine
	wantEpk.ScalarMultiplication(&gd, eskScalar(n))
	if wantEpk.Bytes() != ct.EphemeralKey {
		return note.Note{}, false
	}

	cm := n.Commitment()
	if cm.IsEmpty() {
		return note.Note{}, false
	}

	return n, true
}

// TryDecryptAsSender attempts to recover an outgoing note using the
// sender's outgoing viewing key and the candidate note commitment
// recorded on the ledger, succeeding iff ovk matches the sender
// originally used and the ledger commitment agrees.
func TryDecryptAsSender(ovk keys.OutgoingViewingKey, ct *types.TransmittedNoteCiphertext, ledgerCommitment types.Hash, diversifier types.Diversifier) (note.Note, bool) {
	ovkBytes := ovk.Bytes()
	kOut, err := primitives.ExpandKey(ovkBytes[:], "OrchardZ-KOut", string(ct.EphemeralKey[:])+string(ledgerCommitment[:]))
	if err != nil {
		return note.Note{}, false
	}
	outPlain, err := primitives.Decrypt(kOut, ct.Out[:])
	if err != nil {
		return note.Note{}, false
	}
	if len(outPlain) != types.OutPlaintextSize {
		return note.Note{}, false
	}
	var pkd [32]byte
	copy(pkd[:], outPlain[:32])
	esk := new(big.Int).SetBytes(outPlain[32:64])

	gd := keys.DiversifierBase(diversifier)
	var epkPoint bn254.G1Affine
	epkPoint.ScalarMultiplication(&gd, esk)
	if epkPoint.Bytes() != ct.EphemeralKey {
		return note.Note{}, false
	}

	pkdPoint, err := keys.DecompressPoint(pkd)
	if err != nil {
		return note.Note{}, false
	}
	var shared bn254.G1Affine
	shared.ScalarMultiplication(&pkdPoint, esk)
	sharedBytes := shared.Bytes()

	kEnc, err := primitives.ExpandKey(append(sharedBytes[:], ct.EphemeralKey[:]...), "OrchardZ-KEnc", "")
	if err != nil {
		return note.Note{}, false
	}
	plaintext, err := primitives.Decrypt(kEnc, ct.Enc[:])
	if err != nil {
		return note.Note{}, false
	}

	var addr types.Address
	addr.D = diversifier
	addr.Pkd = pkd
	n, ok := decodeNotePlaintext(plaintext, addr)
	if !ok {
		return note.Note{}, false
	}
	if n.Commitment() != ledgerCommitment {
		return note.Note{}, false
	}
	return n, true
}

// eskScalar derives the per-note ephemeral Diffie-Hellman scalar from the
// note's rseed (spec.md §4.3: "deterministically from the note's rseed").
func eskScalar(n note.Note) *big.Int {
	h := n.Esk()
	return new(big.Int).SetBytes(h[:])
}

// encodeNotePlaintext packs a note's semantic fields into the fixed
// 628-byte layout pkg/types.NotePlaintextSize describes (see DESIGN.md
// for the size-discrepancy resolution).
func encodeNotePlaintext(n note.Note) [types.NotePlaintextSize]byte {
	var out [types.NotePlaintextSize]byte
	off := 0
	out[off] = plaintextVersion
	off++
	off += putU64(out[off:], n.Header)
	copy(out[off:off+types.DiversifierSize], n.Recipient.D[:])
	off += types.DiversifierSize
	off += putU64(out[off:], n.D1)
	off += putU64(out[off:], n.D2)
	off += putU64(out[off:], n.SC)
	off += putU64(out[off:], n.NFT)
	copy(out[off:off+32], n.Rho[:])
	off += 32
	copy(out[off:off+32], n.Rseed[:])
	off += 32
	copy(out[off:off+note.MemoSize], n.Memo[:])
	off += note.MemoSize
	return out
}

// decodeNotePlaintext reverses encodeNotePlaintext. The plaintext itself
// carries only the diversifier, not the transmission key, so the caller
// supplies the full address the ciphertext was filed under (the
// wallet's own address when trial-decrypting as receiver, or the
// recovered pk_d when trial-decrypting as sender).
func decodeNotePlaintext(plaintext []byte, addr types.Address) (note.Note, bool) {
	if len(plaintext) != types.NotePlaintextSize {
		return note.Note{}, false
	}
	if plaintext[0] != plaintextVersion {
		return note.Note{}, false
	}
	off := 1
	header := getU64(plaintext[off:])
	off += 8
	var d types.Diversifier
	copy(d[:], plaintext[off:off+types.DiversifierSize])
	off += types.DiversifierSize
	if d != addr.D {
		return note.Note{}, false
	}
	d1 := getU64(plaintext[off:])
	off += 8
	d2 := getU64(plaintext[off:])
	off += 8
	sc := getU64(plaintext[off:])
	off += 8
	nft := getU64(plaintext[off:])
	off += 8
	var rho types.Hash
	copy(rho[:], plaintext[off:off+32])
	off += 32
	var rseed [32]byte
	copy(rseed[:], plaintext[off:off+32])
	off += 32
	var memo [note.MemoSize]byte
	copy(memo[:], plaintext[off:off+note.MemoSize])

	n := note.Note{
		Header: header, Recipient: addr,
		D1: d1, D2: d2, SC: sc, NFT: nft,
		Rho: rho, Rseed: rseed, Memo: memo,
	}
	return n, true
}

// encodeOutPlaintext packs the outgoing-recovery payload: the recipient's
// raw transmission key and the sender's ephemeral scalar, letting the
// sender fully reconstruct the note without needing the recipient's ivk.
func encodeOutPlaintext(n note.Note) [types.OutPlaintextSize]byte {
	var out [types.OutPlaintextSize]byte
	copy(out[:32], n.Recipient.Pkd[:])
	esk := eskScalar(n)
	bz := make([]byte, 32)
	esk.FillBytes(bz)
	copy(out[32:64], bz)
	return out
}

func putU64(b []byte, v uint64) int {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return 8
}

func getU64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = (v << 8) | uint64(b[i])
	}
	return v
}
