// Package wire holds the logical and binary transaction/block shapes the
// recognizer consumes. The logical shapes mirror §6's external interface:
// a daemon's get_transactions (decode_as_json=true) response flattened to
// the fields the recognizer actually reads. The binary parser in
// binary.go covers the raw-blob path for callers that fetch with
// decode_as_json=false.
package wire

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HexBytes decodes a JSON hex string into a byte slice of arbitrary
// length, used for the "extra" field.
type HexBytes []byte

func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("wire: decoding hex bytes: %w", err)
	}
	*h = b
	return nil
}

// Hash32 decodes a fixed 32-byte hex field (tx hash, output key, ...).
type Hash32 [32]byte

func (h *Hash32) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("wire: decoding hash: %w", err)
	}
	if len(b) != 32 {
		return fmt.Errorf("wire: hash field has %d bytes, want 32", len(b))
	}
	copy(h[:], b)
	return nil
}

func (h Hash32) String() string { return hex.EncodeToString(h[:]) }

// Amount8 decodes the 8-byte hex-encoded encrypted RingCT amount field.
type Amount8 [8]byte

func (a *Amount8) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("wire: decoding amount: %w", err)
	}
	if len(b) != 8 {
		return fmt.Errorf("wire: amount field has %d bytes, want 8", len(b))
	}
	copy(a[:], b)
	return nil
}

// HexByte decodes a single byte encoded as a 2-character hex string, the
// wire shape §6 specifies for view_tag.
type HexByte byte

func (b *HexByte) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("wire: decoding hex byte: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("wire: hex byte field has %d bytes, want 1", len(raw))
	}
	*b = HexByte(raw[0])
	return nil
}

// GenInput is a coinbase ("gen") input: the sole input of a miner
// transaction.
type GenInput struct {
	Height uint64 `json:"height"`
}

// Input is one element of a transaction's vin list. A non-nil Gen marks
// the transaction as coinbase.
type Input struct {
	Gen *GenInput `json:"gen,omitempty"`
}

// IsGen reports whether this input is the coinbase "gen" variant.
func (in Input) IsGen() bool { return in.Gen != nil }

// Output is one element of a transaction's vout list. Tagged reports
// whether the output carries a view tag at all: pre-view-tag outputs
// (RCT types below 5) have no view_tag field on the wire, and the
// recognizer's view-tag filter has nothing to match against for them.
type Output struct {
	OutputKey Hash32  `json:"output_key"`
	ViewTag   HexByte `json:"view_tag"`
	Tagged    bool    `json:"-"`
}

func (o *Output) UnmarshalJSON(data []byte) error {
	var raw struct {
		OutputKey Hash32   `json:"output_key"`
		ViewTag   *HexByte `json:"view_tag"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.OutputKey = raw.OutputKey
	if raw.ViewTag != nil {
		o.ViewTag = *raw.ViewTag
		o.Tagged = true
	}
	return nil
}

// EcdhTuple carries the encrypted amount for one output.
type EcdhTuple struct {
	Amount Amount8 `json:"amount"`
}

// RctSignatures is the RingCT envelope of a transaction.
type RctSignatures struct {
	Type     int         `json:"type"`
	EcdhInfo []EcdhTuple `json:"ecdhInfo"`
}

// Transaction is the logical shape the recognizer operates on.
type Transaction struct {
	Hash          string        `json:"hash"`
	Version       int           `json:"version"`
	UnlockTime    int           `json:"unlock_time"`
	Extra         HexBytes      `json:"extra"`
	Vin           []Input       `json:"vin"`
	Vout          []Output      `json:"vout"`
	RctSignatures RctSignatures `json:"rct_signatures"`
}

// IsCoinbase reports whether the transaction is a miner (coinbase)
// transaction: exactly one input, and that input is the "gen" variant.
func (tx Transaction) IsCoinbase() bool {
	return len(tx.Vin) == 1 && tx.Vin[0].IsGen()
}

// Block is the logical shape of a decoded block: the miner transaction
// plus the ordinary transactions it references.
type Block struct {
	Height uint64        `json:"height"`
	Hash   string        `json:"hash,omitempty"`
	Miner  Transaction   `json:"miner_tx"`
	Txs    []Transaction `json:"txs"`
}
