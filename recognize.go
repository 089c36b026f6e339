package xmrviewscan

import (
	"encoding/binary"

	"github.com/0xAF4/xmrviewscan/internal/curve"
	"github.com/0xAF4/xmrviewscan/internal/derive"
	"github.com/0xAF4/xmrviewscan/internal/txextra"
	"github.com/0xAF4/xmrviewscan/internal/wire"
)

// defaultSafeAmountCeilingXMR is the scanner's default safe-amount
// ceiling: outputs that decrypt above this are assumed to be false
// positives from the ~1/256 view-tag coincidence, per the recognizer's
// amount sanity filter.
const defaultSafeAmountCeilingXMR = 9999

func ceilingPiconero(xmr uint64) uint64 {
	return xmr * piconeroPerXMR
}

// selectCandidates implements the off-by-one convention load-bearing for
// wire compatibility: the primary candidate is ordinarily the extra
// blob's primary tx public key, but for output i >= 1, the additional
// key at index i-1 takes priority over it if present. A second,
// independent fallback candidate is the additional key at index i
// itself.
func selectCandidates(parsed txextra.Parsed, index int) (primary [32]byte, hasPrimary bool, fallback [32]byte, hasFallback bool) {
	if parsed.HasTxPubKey {
		primary = parsed.TxPubKey
		hasPrimary = true
	}
	if index >= 1 && index-1 < len(parsed.Additional) {
		primary = parsed.Additional[index-1]
		hasPrimary = true
	}
	if index < len(parsed.Additional) {
		fallback = parsed.Additional[index]
		hasFallback = true
	}
	return
}

// matchViewTag computes the derivation for a candidate tx public key and
// reports whether its view tag at index matches the output's committed
// tag. A malformed candidate key (off-curve) surfaces as an InvalidPoint
// error rather than a plain false: attacker-controlled extra bytes
// routinely fail to decode, but the caller needs to tell that apart from
// a clean tag mismatch to know whether it is worth a skip log line.
func matchViewTag(candidate [32]byte, viewPriv curve.Scalar, index uint64, wantTag byte) (derive.Derivation, bool, error) {
	pub, err := curve.PointDecode(candidate[:])
	if err != nil {
		return derive.Derivation{}, false, newScanError(KindInvalidPoint, "tx public key: %w", err)
	}
	d := derive.KeyDerivation(pub, viewPriv)
	return d, d.ViewTagAt(index) == wantTag, nil
}

// recognizeOutput runs the full per-output pipeline: candidate selection,
// view-tag filtering, stealth destination-key recovery, amount
// decryption, and the safe-amount sanity filter. encryptedAmount is the
// rct_signatures.ecdhInfo entry aligned with this output by index, valid
// only when hasAmount is true.
//
// A nil candidate with a nil error means the output was filtered out by
// the ordinary, routine reasons (no candidate key matched the view tag,
// or the decrypted amount exceeded the ceiling) — the overwhelming
// majority of outputs in any transaction not addressed to this wallet,
// and not worth surfacing as anything. A nil candidate with a non-nil
// error means the output was skipped for a reason worth a caller's log
// line: a malformed shape or a key that failed to decode.
func recognizeOutput(parsed txextra.Parsed, out wire.Output, encryptedAmount [8]byte, hasAmount bool, index int, viewPriv curve.Scalar, ceiling uint64) (*CandidateOutput, *[8]byte, error) {
	if !hasAmount {
		return nil, nil, newScanError(KindDecryptShort, "output %d: no ecdhInfo entry for this output", index)
	}
	if !out.Tagged {
		return nil, nil, newScanError(KindMalformedOutput, "output %d: no view tag on output (pre-view-tag rct type)", index)
	}

	primary, hasPrimary, fallback, hasFallback := selectCandidates(parsed, index)

	wantTag := byte(out.ViewTag)
	idx := uint64(index)

	var (
		d          derive.Derivation
		matched    bool
		winningKey [32]byte
		anyDecoded bool
		decodeErr  error
	)
	if hasPrimary {
		dd, ok, err := matchViewTag(primary, viewPriv, idx, wantTag)
		if err != nil {
			decodeErr = err
		} else {
			anyDecoded = true
			if ok {
				d, matched, winningKey = dd, true, primary
			}
		}
	}
	if !matched && hasFallback {
		dd, ok, err := matchViewTag(fallback, viewPriv, idx, wantTag)
		if err != nil {
			decodeErr = err
		} else {
			anyDecoded = true
			if ok {
				d, matched, winningKey = dd, true, fallback
			}
		}
	}
	if !matched {
		if anyDecoded {
			// At least one candidate decoded cleanly and simply missed
			// the view tag: the ordinary, silent, non-ownership case.
			return nil, nil, nil
		}
		return nil, nil, decodeErr
	}

	outputKey, err := curve.PointDecode(out.OutputKey[:])
	if err != nil {
		return nil, nil, newScanError(KindInvalidPoint, "output %d: output_key: %w", index, err)
	}

	s := d.ScalarAt(idx)
	sG := curve.ScalarMultBase(s)
	spendKeyPoint := sG.Negate().Add(outputKey)
	// P = s*G + D must reconstruct the exact output key s was derived
	// from; this can only fail if the curve arithmetic above is broken.
	if !sG.Add(spendKeyPoint).Equal(outputKey) {
		return nil, nil, newScanError(KindInternalInvariant, "output %d: spend key recovery did not round-trip", index)
	}
	spendKey := spendKeyPoint.Encode()

	mask := d.AmountMaskAt(idx)
	amountPiconero := xorMaskU64(mask, encryptedAmount)

	if amountPiconero > ceiling {
		return nil, nil, nil
	}

	candidate := &CandidateOutput{
		OutputIndex:             index,
		RecoveredPublicSpendKey: Hash32(spendKey),
		AmountPiconero:          amountPiconero,
		AmountXMR:               formatPiconero(amountPiconero),
		TxPublicKey:             Hash32(winningKey),
		OutputKey:               Hash32(out.OutputKey),
	}

	var paymentID *[8]byte
	if parsed.HasPaymentID {
		pidMask := d.PaymentIDMask()
		decrypted := xorBytes8(pidMask, parsed.PaymentID)
		paymentID = &decrypted
	}

	return candidate, paymentID, nil
}

func xorMaskU64(mask [8]byte, encrypted [8]byte) uint64 {
	var xored [8]byte
	for i := range xored {
		xored[i] = mask[i] ^ encrypted[i]
	}
	return binary.LittleEndian.Uint64(xored[:])
}

func xorBytes8(mask, in [8]byte) [8]byte {
	var out [8]byte
	for i := range out {
		out[i] = mask[i] ^ in[i]
	}
	return out
}
