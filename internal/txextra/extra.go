// Package txextra scans a transaction's "extra" byte blob for the tagged
// sub-records the recognizer needs: the transaction public key(s) and,
// when present, an encrypted short payment id. It is a single
// left-to-right sweep with no backtracking, so it terminates in time
// linear in the blob length even on adversarial input.
package txextra

// Tag bytes defined by the Monero tx_extra wire format.
const (
	tagTxPubKey        = 0x01
	tagNonce           = 0x02
	tagAdditionalKeys  = 0x04
	nonceTagPaymentID8 = 0x00 // unencrypted short payment id sub-tag
	nonceTagPaymentIDE = 0x01 // encrypted short payment id sub-tag
)

// Parsed holds the raw key material pulled out of an extra blob. Keys are
// left as undecoded 32-byte strings: a malformed point here is a
// per-output concern (InvalidPoint), not a reason to abort the scan of
// the rest of the blob.
type Parsed struct {
	HasTxPubKey  bool
	TxPubKey     [32]byte
	Additional   [][32]byte
	HasPaymentID bool
	PaymentID    [8]byte // still encrypted; decrypted in the recognizer
}

// Parse performs the tag-length-value scan described by the wire format.
// Truncation at any required read stops the scan and returns whatever was
// collected so far; it is never an error in itself — a transaction with
// no primary tx public key simply yields a Parsed with HasTxPubKey false,
// which the caller turns into zero candidates.
func Parse(extra []byte) Parsed {
	var out Parsed
	i := 0
	for i < len(extra) {
		tag := extra[i]
		i++

		switch tag {
		case tagTxPubKey:
			if i+32 > len(extra) {
				return out
			}
			if !out.HasTxPubKey {
				// First occurrence wins; later 0x01 tags are discarded,
				// matching the canonical convention (see DESIGN.md).
				var key [32]byte
				copy(key[:], extra[i:i+32])
				out.TxPubKey = key
				out.HasTxPubKey = true
			}
			i += 32

		case tagNonce:
			if i >= len(extra) {
				return out
			}
			l := int(extra[i])
			i++
			if i+l > len(extra) {
				return out
			}
			nonce := extra[i : i+l]
			if l == 9 && nonce[0] == nonceTagPaymentIDE {
				var pid [8]byte
				copy(pid[:], nonce[1:9])
				out.PaymentID = pid
				out.HasPaymentID = true
			}
			i += l

		case tagAdditionalKeys:
			if i >= len(extra) {
				return out
			}
			n := int(extra[i])
			i++
			need := n * 32
			if i+need > len(extra) {
				// Fewer bytes remain than needed: take what fits and stop,
				// per the "stop early" rule.
				avail := (len(extra) - i) / 32
				for j := 0; j < avail; j++ {
					var key [32]byte
					copy(key[:], extra[i+j*32:i+(j+1)*32])
					out.Additional = append(out.Additional, key)
				}
				return out
			}
			for j := 0; j < n; j++ {
				var key [32]byte
				copy(key[:], extra[i+j*32:i+(j+1)*32])
				out.Additional = append(out.Additional, key)
			}
			i += need

		default:
			if i >= len(extra) {
				return out
			}
			l := int(extra[i])
			i++
			if i+l > len(extra) {
				return out
			}
			i += l
		}
	}
	return out
}
