package types

import "encoding/binary"

// SerializeZAction renders a ZAction into the little-endian wire layout
// spec.md §6 mandates, in field order: za_type, anchor, nullifier, rk.x,
// rk.y, nft_flag, b_d1, b_d2, b_sc, c_d1, cmb, cmc, memo_len, memo. Per
// spec §6, b_d1/b_d2/b_sc/c_d1 are plain u64 quantities (one limb each),
// unlike the four full field elements they sit alongside.
func SerializeZAction(za ZAction) []byte {
	buf := make([]byte, 0, 8+4*8*4+8*4+1+1+len(za.Memo))

	buf = appendU64(buf, uint64(za.Type))
	buf = appendElement(buf, za.Instance.Anchor)
	buf = appendElement(buf, za.Instance.Nullifier)
	buf = appendElement(buf, za.Instance.RkX)
	buf = appendElement(buf, za.Instance.RkY)

	var flag byte
	if za.Instance.NFTFlag {
		flag = 0x01
	}
	buf = append(buf, flag)

	buf = appendU64(buf, za.Instance.BD1[0])
	buf = appendU64(buf, za.Instance.BD2[0])
	buf = appendU64(buf, za.Instance.BSC[0])
	buf = appendU64(buf, za.Instance.CD1[0])
	buf = appendElement(buf, za.Instance.Cmb)
	buf = appendElement(buf, za.Instance.Cmc)

	memoLen := len(za.Memo)
	if memoLen > 255 {
		memoLen = 255
	}
	buf = append(buf, byte(memoLen))
	buf = append(buf, za.Memo[:memoLen]...)

	return buf
}

func appendU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func appendElement(buf []byte, e Element) []byte {
	for _, limb := range e {
		buf = appendU64(buf, limb)
	}
	return buf
}
