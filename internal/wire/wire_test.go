package wire

import (
	"encoding/hex"
	"encoding/json"
	"testing"
)

const sampleTxJSON = `{
	"hash": "aa",
	"version": 2,
	"unlock_time": 0,
	"extra": "010102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20",
	"vin": [{}],
	"vout": [
		{"output_key": "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20", "view_tag": "ab"}
	],
	"rct_signatures": {"type": 5, "ecdhInfo": [{"amount": "0011223344556677"}]}
}`

func TestTransactionUnmarshalJSON(t *testing.T) {
	var tx Transaction
	if err := json.Unmarshal([]byte(sampleTxJSON), &tx); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if tx.Version != 2 {
		t.Fatalf("version: got %d, want 2", tx.Version)
	}
	if len(tx.Vout) != 1 {
		t.Fatalf("vout: got %d entries, want 1", len(tx.Vout))
	}
	if tx.Vout[0].ViewTag != 0xab {
		t.Fatalf("view_tag: got %#x, want 0xab", tx.Vout[0].ViewTag)
	}
	if !tx.Vout[0].Tagged {
		t.Fatalf("expected Tagged to be true when view_tag is present in JSON")
	}
	if len(tx.RctSignatures.EcdhInfo) != 1 {
		t.Fatalf("ecdhInfo: got %d entries, want 1", len(tx.RctSignatures.EcdhInfo))
	}
	want := [8]byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77}
	if tx.RctSignatures.EcdhInfo[0].Amount != Amount8(want) {
		t.Fatalf("amount: got %x, want %x", tx.RctSignatures.EcdhInfo[0].Amount, want)
	}
}

func TestTransactionIsCoinbase(t *testing.T) {
	coinbase := Transaction{Vin: []Input{{Gen: &GenInput{Height: 42}}}}
	if !coinbase.IsCoinbase() {
		t.Fatalf("single gen input must be coinbase")
	}

	ordinary := Transaction{Vin: []Input{{}, {}}}
	if ordinary.IsCoinbase() {
		t.Fatalf("multiple inputs must not be coinbase")
	}
}

func TestOutputUnmarshalJSONUntagged(t *testing.T) {
	var out Output
	if err := json.Unmarshal([]byte(`{"output_key": "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"}`), &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Tagged {
		t.Fatalf("expected Tagged to be false when view_tag is absent from JSON")
	}
}

func TestHash32UnmarshalWrongLength(t *testing.T) {
	var h Hash32
	if err := json.Unmarshal([]byte(`"aabb"`), &h); err == nil {
		t.Fatalf("expected an error decoding a too-short hash")
	}
}

func buildVarint(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func TestParseTransactionBinaryCoinbase(t *testing.T) {
	var blob []byte
	blob = append(blob, buildVarint(2)...)  // version
	blob = append(blob, buildVarint(0)...)  // unlock_time
	blob = append(blob, buildVarint(1)...)  // vin count
	blob = append(blob, vinTagGen)
	blob = append(blob, buildVarint(500000)...) // height

	blob = append(blob, buildVarint(1)...) // vout count
	blob = append(blob, buildVarint(0)...) // amount (plaintext, unused here)
	blob = append(blob, voutTagToTaggedKey)
	var outKey [32]byte
	outKey[0] = 0x09
	blob = append(blob, outKey[:]...)
	blob = append(blob, 0x77) // view tag

	blob = append(blob, buildVarint(0)...) // extra length 0

	tx, err := ParseTransaction(blob)
	if err != nil {
		t.Fatalf("ParseTransaction: %v", err)
	}
	if !tx.IsCoinbase() {
		t.Fatalf("expected a coinbase transaction")
	}
	if tx.Vin[0].Gen.Height != 500000 {
		t.Fatalf("height: got %d, want 500000", tx.Vin[0].Gen.Height)
	}
	if len(tx.Vout) != 1 || tx.Vout[0].OutputKey != Hash32(outKey) {
		t.Fatalf("vout mismatch: %+v", tx.Vout)
	}
	if tx.Vout[0].ViewTag != 0x77 {
		t.Fatalf("view tag: got %#x, want 0x77", tx.Vout[0].ViewTag)
	}
	if !tx.Vout[0].Tagged {
		t.Fatalf("expected Tagged to be true for a voutTagToTaggedKey output")
	}
	wantHash := TransactionHash(blob)
	if tx.Hash == "" || tx.Hash != hex.EncodeToString(wantHash[:]) {
		t.Fatalf("tx.Hash not populated as keccak256 of the raw blob: got %q", tx.Hash)
	}
}

func TestParseTransactionBinaryRingCT(t *testing.T) {
	var blob []byte
	blob = append(blob, buildVarint(2)...) // version
	blob = append(blob, buildVarint(0)...) // unlock_time

	blob = append(blob, buildVarint(1)...) // vin count
	blob = append(blob, vinTagKey)
	blob = append(blob, buildVarint(0)...) // amount
	blob = append(blob, buildVarint(2)...) // key offsets count
	blob = append(blob, buildVarint(5)...)
	blob = append(blob, buildVarint(7)...)
	var keyImage [32]byte
	blob = append(blob, keyImage[:]...)

	blob = append(blob, buildVarint(1)...) // vout count
	blob = append(blob, buildVarint(0)...) // amount placeholder
	blob = append(blob, voutTagToTaggedKey)
	var outKey [32]byte
	outKey[0] = 0x55
	blob = append(blob, outKey[:]...)
	blob = append(blob, 0x12) // view tag

	blob = append(blob, buildVarint(0)...) // extra length 0

	blob = append(blob, buildVarint(6)...) // rct type 6: mask omitted (CLSAG/bulletproof+)
	blob = append(blob, buildVarint(0)...) // txnFee
	var amount [8]byte
	amount[0] = 0xEE
	blob = append(blob, amount[:]...)

	tx, err := ParseTransaction(blob)
	if err != nil {
		t.Fatalf("ParseTransaction: %v", err)
	}
	if tx.IsCoinbase() {
		t.Fatalf("did not expect a coinbase transaction")
	}
	if tx.RctSignatures.Type != 6 {
		t.Fatalf("rct type: got %d, want 6", tx.RctSignatures.Type)
	}
	if len(tx.RctSignatures.EcdhInfo) != 1 || tx.RctSignatures.EcdhInfo[0].Amount != Amount8(amount) {
		t.Fatalf("ecdh info mismatch: %+v", tx.RctSignatures.EcdhInfo)
	}
	wantHash2 := TransactionHash(blob)
	if tx.Hash != hex.EncodeToString(wantHash2[:]) {
		t.Fatalf("tx.Hash not populated as keccak256 of the raw blob: got %q", tx.Hash)
	}
}

// buildMinimalBlockBlob assembles a header blob (fixed fields plus a
// one-output, untagged-key coinbase miner tx) followed by its declared
// transaction count, mirroring the shape ParseBlock expects.
func buildMinimalBlockBlob(height uint64, extraTxCount uint64) []byte {
	var blob []byte
	blob = append(blob, 0x0c)             // major version
	blob = append(blob, 0x0c)             // minor version
	blob = append(blob, buildVarint(0)...) // timestamp
	var prevHash [32]byte
	blob = append(blob, prevHash[:]...)
	blob = append(blob, 0, 0, 0, 0) // nonce

	// Miner transaction.
	blob = append(blob, buildVarint(2)...) // version
	blob = append(blob, buildVarint(0)...) // unlock_time
	blob = append(blob, buildVarint(1)...) // vin count
	blob = append(blob, vinTagGen)
	blob = append(blob, buildVarint(height)...)
	blob = append(blob, buildVarint(1)...) // vout count
	blob = append(blob, buildVarint(0)...) // amount
	blob = append(blob, voutTagToKey)
	var outKey [32]byte
	outKey[0] = 0x01
	blob = append(blob, outKey[:]...)
	blob = append(blob, buildVarint(0)...) // extra length 0

	blob = append(blob, buildVarint(extraTxCount)...) // tx count
	return blob
}

func TestParseBlockPopulatesHashesAndHeight(t *testing.T) {
	blob := buildMinimalBlockBlob(777, 0)

	block, err := ParseBlock(blob, nil)
	if err != nil {
		t.Fatalf("ParseBlock: %v", err)
	}
	if block.Height != 777 {
		t.Fatalf("height: got %d, want 777", block.Height)
	}
	if block.Miner.Hash == "" {
		t.Fatalf("expected the miner transaction's Hash to be populated")
	}
	if block.Miner.Vout[0].Tagged {
		t.Fatalf("expected the miner output to be untagged (voutTagToKey)")
	}
	if block.Hash == "" {
		t.Fatalf("expected the block's Hash to be populated")
	}

	again, err := ParseBlock(blob, nil)
	if err != nil {
		t.Fatalf("ParseBlock (second call): %v", err)
	}
	if again.Hash != block.Hash || again.Miner.Hash != block.Miner.Hash {
		t.Fatalf("ParseBlock is not deterministic across calls on the same blob")
	}
}

func TestParseBlockRejectsTxCountMismatch(t *testing.T) {
	blob := buildMinimalBlockBlob(1, 1) // declares 1 tx, but no blobs given
	if _, err := ParseBlock(blob, nil); err == nil {
		t.Fatalf("expected an error when the declared tx count does not match the blob count")
	}
}
