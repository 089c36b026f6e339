package wire

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/0xAF4/xmrviewscan/internal/khash"
)

// errTruncated is returned by the binary parsers when the blob ends
// before a required field could be read.
var errTruncated = fmt.Errorf("wire: truncated transaction or block blob")

func readVarint(r *bytes.Reader) (uint64, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, errTruncated
		}
		buf = append(buf, b)
		if b&0x80 == 0 {
			break
		}
	}
	v, _, ok := khash.DecodeVarint(buf)
	if !ok {
		return 0, errTruncated
	}
	return v, nil
}

func readExact(r *bytes.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errTruncated
	}
	return buf, nil
}

const (
	vinTagGen = 0xff
	vinTagKey = 0x02

	voutTagToKey       = 0x02
	voutTagToTaggedKey = 0x03
)

// ParseTransaction decodes the raw binary transaction blob returned by a
// daemon's get_transactions when decode_as_json=false into the same
// logical shape produced by the JSON path. It is grounded directly on
// the reference decoder's prefix/vin/vout/extra/rct-sig walk, generalized
// to stop once it has read the fields the recognizer needs (through
// ecdhInfo) — the bulletproof and CLSAG sections that follow are
// signature-verification material the scanner never inspects.
func ParseTransaction(raw []byte) (Transaction, error) {
	r := bytes.NewReader(raw)
	var tx Transaction
	txHash := TransactionHash(raw)
	tx.Hash = hex.EncodeToString(txHash[:])

	version, err := readVarint(r)
	if err != nil {
		return Transaction{}, err
	}
	tx.Version = int(version)

	unlockTime, err := readVarint(r)
	if err != nil {
		return Transaction{}, err
	}
	tx.UnlockTime = int(unlockTime)

	vinCount, err := readVarint(r)
	if err != nil {
		return Transaction{}, err
	}
	for i := uint64(0); i < vinCount; i++ {
		typ, err := r.ReadByte()
		if err != nil {
			return Transaction{}, errTruncated
		}
		switch typ {
		case vinTagGen:
			height, err := readVarint(r)
			if err != nil {
				return Transaction{}, err
			}
			tx.Vin = append(tx.Vin, Input{Gen: &GenInput{Height: height}})
		case vinTagKey:
			if _, err := readVarint(r); err != nil { // amount
				return Transaction{}, err
			}
			offsetCount, err := readVarint(r)
			if err != nil {
				return Transaction{}, err
			}
			for j := uint64(0); j < offsetCount; j++ {
				if _, err := readVarint(r); err != nil {
					return Transaction{}, err
				}
			}
			if _, err := readExact(r, 32); err != nil { // key image
				return Transaction{}, err
			}
			tx.Vin = append(tx.Vin, Input{})
		default:
			return Transaction{}, fmt.Errorf("wire: unknown vin type 0x%x", typ)
		}
	}

	voutCount, err := readVarint(r)
	if err != nil {
		return Transaction{}, err
	}
	for i := uint64(0); i < voutCount; i++ {
		if _, err := readVarint(r); err != nil { // amount, always 0 post-RingCT
			return Transaction{}, err
		}
		typ, err := r.ReadByte()
		if err != nil {
			return Transaction{}, errTruncated
		}
		key, err := readExact(r, 32)
		if err != nil {
			return Transaction{}, err
		}
		var out Output
		copy(out.OutputKey[:], key)
		if typ == voutTagToTaggedKey {
			tag, err := r.ReadByte()
			if err != nil {
				return Transaction{}, errTruncated
			}
			out.ViewTag = HexByte(tag)
			out.Tagged = true
		}
		tx.Vout = append(tx.Vout, out)
	}

	extraLen, err := readVarint(r)
	if err != nil {
		return Transaction{}, err
	}
	extra, err := readExact(r, int(extraLen))
	if err != nil {
		return Transaction{}, err
	}
	tx.Extra = extra

	if tx.IsCoinbase() {
		// Coinbase transactions carry no RingCT signature section.
		return tx, nil
	}

	rctType, err := readVarint(r)
	if err != nil {
		return Transaction{}, err
	}
	tx.RctSignatures.Type = int(rctType)
	if rctType == 0 {
		return tx, nil
	}
	if _, err := readVarint(r); err != nil { // txnFee
		return Transaction{}, err
	}

	maskOmitted := rctType == 4 || rctType == 5 || rctType == 6
	for i := 0; i < len(tx.Vout); i++ {
		if !maskOmitted {
			if _, err := readExact(r, 32); err != nil { // mask
				return Transaction{}, err
			}
		}
		amount, err := readExact(r, 8)
		if err != nil {
			return Transaction{}, err
		}
		var tuple EcdhTuple
		copy(tuple.Amount[:], amount)
		tx.RctSignatures.EcdhInfo = append(tx.RctSignatures.EcdhInfo, tuple)
	}

	return tx, nil
}

// ParseBlock decodes a raw block header blob plus its already-fetched
// transaction blobs into the logical Block shape. It is grounded on the
// reference's block-header walk, with the merkle-root/proof-of-work
// machinery dropped: chain validation is an explicit non-goal, and the
// scanner only needs the miner transaction and the ordinary transaction
// list.
func ParseBlock(headerBlob []byte, txBlobs [][]byte) (Block, error) {
	r := bytes.NewReader(headerBlob)

	if _, err := r.ReadByte(); err != nil { // major version
		return Block{}, errTruncated
	}
	if _, err := r.ReadByte(); err != nil { // minor version
		return Block{}, errTruncated
	}
	if _, err := readVarint(r); err != nil { // timestamp
		return Block{}, err
	}
	if _, err := readExact(r, 32); err != nil { // previous block hash
		return Block{}, err
	}
	if _, err := readExact(r, 4); err != nil { // nonce
		return Block{}, err
	}

	minerStart := len(headerBlob) - r.Len()
	miner, err := parseMinerTx(r)
	if err != nil {
		return Block{}, err
	}
	minerEnd := len(headerBlob) - r.Len()
	minerHash := TransactionHash(headerBlob[minerStart:minerEnd])
	miner.Hash = hex.EncodeToString(minerHash[:])

	txCount, err := readVarint(r)
	if err != nil {
		return Block{}, err
	}
	if int(txCount) != len(txBlobs) {
		return Block{}, fmt.Errorf("wire: block declares %d transactions, got %d blobs", txCount, len(txBlobs))
	}

	var out Block
	out.Height = miner.Vin[0].Gen.Height
	out.Miner = miner
	for _, blob := range txBlobs {
		tx, err := ParseTransaction(blob)
		if err != nil {
			// A single malformed transaction does not abort the block;
			// it is simply omitted from the scan.
			continue
		}
		out.Txs = append(out.Txs, tx)
	}
	blockHash := BlockHash(headerBlob, minerHash, txCount)
	out.Hash = hex.EncodeToString(blockHash[:])
	return out, nil
}

func parseMinerTx(r *bytes.Reader) (Transaction, error) {
	var tx Transaction

	version, err := readVarint(r)
	if err != nil {
		return Transaction{}, err
	}
	tx.Version = int(version)

	unlockTime, err := readVarint(r)
	if err != nil {
		return Transaction{}, err
	}
	tx.UnlockTime = int(unlockTime)

	vinCount, err := readVarint(r)
	if err != nil || vinCount != 1 {
		return Transaction{}, fmt.Errorf("wire: miner tx must have exactly one input")
	}
	typ, err := r.ReadByte()
	if err != nil || typ != vinTagGen {
		return Transaction{}, fmt.Errorf("wire: miner tx input must be the gen variant")
	}
	height, err := readVarint(r)
	if err != nil {
		return Transaction{}, err
	}
	tx.Vin = append(tx.Vin, Input{Gen: &GenInput{Height: height}})

	voutCount, err := readVarint(r)
	if err != nil {
		return Transaction{}, err
	}
	for i := uint64(0); i < voutCount; i++ {
		if _, err := readVarint(r); err != nil { // amount
			return Transaction{}, err
		}
		typ, err := r.ReadByte()
		if err != nil {
			return Transaction{}, errTruncated
		}
		key, err := readExact(r, 32)
		if err != nil {
			return Transaction{}, err
		}
		var out Output
		copy(out.OutputKey[:], key)
		if typ == voutTagToTaggedKey {
			tag, err := r.ReadByte()
			if err != nil {
				return Transaction{}, errTruncated
			}
			out.ViewTag = HexByte(tag)
			out.Tagged = true
		}
		tx.Vout = append(tx.Vout, out)
	}

	extraLen, err := readVarint(r)
	if err != nil {
		return Transaction{}, err
	}
	extra, err := readExact(r, int(extraLen))
	if err != nil {
		return Transaction{}, err
	}
	tx.Extra = extra

	return tx, nil
}
