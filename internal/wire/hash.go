package wire

import (
	"golang.org/x/crypto/sha3"

	"github.com/0xAF4/xmrviewscan/internal/khash"
)

// keccak256General hashes with the original Keccak padding via
// golang.org/x/crypto/sha3's legacy constructor, kept distinct from
// internal/khash.Keccak256 (github.com/ebfe/keccak-backed): the
// recognition core's domain-separated hashes (view tag, amount mask,
// payment id) go through khash, while the general-purpose hashing a
// wire-level parser needs to label what it just decoded goes through
// sha3, mirroring the split already present across the teacher's own
// levin and moneroutil packages.
func keccak256General(chunks ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, c := range chunks {
		h.Write(c)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// TransactionHash is the transaction identifier: keccak256 of the raw
// serialized transaction blob.
func TransactionHash(raw []byte) [32]byte {
	return keccak256General(raw)
}

// BlockHash labels a decoded block: keccak256 of the header blob, the
// miner transaction hash, and the transaction count. Real block hashing
// additionally folds in a merkle root over every transaction hash;
// that tree is omitted here since nothing in this package validates
// chain consensus, it only needs a stable identifier for a scanned
// block.
func BlockHash(headerBlob []byte, minerTxHash [32]byte, txCount uint64) [32]byte {
	return keccak256General(headerBlob, minerTxHash[:], khash.EncodeVarint(txCount))
}
