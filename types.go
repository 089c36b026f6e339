// Package xmrviewscan recognizes outputs belonging to a Monero view key
// inside already-fetched blocks and transactions. It performs no network
// I/O and trusts no remote wallet service: every candidate it returns is
// derived purely from the caller's private view key and the transaction
// bytes handed to it.
package xmrviewscan

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash32 is a fixed 32-byte value that marshals to JSON as a hex string,
// the same convention the rest of this ecosystem uses for on-the-wire
// keys and hashes rather than a raw byte array.
type Hash32 [32]byte

func (h Hash32) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h[:]))
}

func (h Hash32) String() string { return hex.EncodeToString(h[:]) }

// PaymentID8 is an 8-byte payment id that marshals to JSON as a hex
// string.
type PaymentID8 [8]byte

func (p PaymentID8) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(p[:]))
}

// CandidateOutput is an output that survived the recognition pipeline: it
// plausibly belongs to the wallet that controls the view key the scan was
// constructed with. Callers must still reconcile RecoveredPublicSpendKey
// against their own authoritative set of owned spend keys (primary
// address plus any subaddresses) before treating the output as theirs —
// the pipeline's false-positive rate is low, not zero.
type CandidateOutput struct {
	TxHash                  string      `json:"tx_hash"`
	OutputIndex             int         `json:"output_index"`
	RecoveredPublicSpendKey Hash32      `json:"recovered_public_spend_key"`
	AmountPiconero          uint64      `json:"amount_piconero"`
	AmountXMR               string      `json:"amount_xmr"`
	TxPublicKey             Hash32      `json:"tx_public_key"`
	OutputKey               Hash32      `json:"output_key"`
	TxVersion               int         `json:"tx_version"`
	UnlockTime              int         `json:"unlock_time"`
	InputCount              int         `json:"input_count"`
	OutputCount             int         `json:"output_count"`
	RctType                 int         `json:"rct_type"`
	IsCoinbase              bool        `json:"is_coinbase"`
	PaymentID               *PaymentID8 `json:"payment_id,omitempty"`
}

const piconeroPerXMR = 1_000_000_000_000

// formatPiconero renders a piconero amount as a decimal XMR string with
// exactly 12 fractional digits. It works entirely in integer arithmetic:
// binary floating point cannot represent piconero amounts exactly, and
// nothing in the dependency graph here pulls in an arbitrary-precision
// decimal type, so plain integer division and string formatting is the
// whole implementation.
func formatPiconero(piconero uint64) string {
	whole := piconero / piconeroPerXMR
	frac := piconero % piconeroPerXMR
	return fmt.Sprintf("%d.%012d", whole, frac)
}
