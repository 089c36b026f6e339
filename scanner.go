package xmrviewscan

import (
	"fmt"
	"sync"
	"time"

	"github.com/0xAF4/xmrviewscan/internal/curve"
	"github.com/0xAF4/xmrviewscan/internal/logx"
	"github.com/0xAF4/xmrviewscan/internal/txextra"
	"github.com/0xAF4/xmrviewscan/internal/wire"
)

// Scanner recognizes outputs addressed to a single private view key. It
// is pure with respect to its return values — it performs no network
// I/O and derives every candidate solely from its view key and the
// bytes handed to it — but it does optionally report its own progress
// and skip decisions to a logger, the one ambient side effect it has.
// A Scanner value may be reused across any number of
// ScanTransaction/ScanBlock calls, and may be shared across goroutines.
type Scanner struct {
	viewPriv        curve.Scalar
	ceilingPiconero uint64
	workers         int
	logger          logx.Logger
}

// Option configures a Scanner at construction.
type Option func(*Scanner)

// WithSafeAmountCeilingXMR overrides the default 9999 XMR ceiling above
// which a decrypted amount is assumed to be a view-tag false positive
// and discarded.
func WithSafeAmountCeilingXMR(xmr uint64) Option {
	return func(s *Scanner) { s.ceilingPiconero = ceilingPiconero(xmr) }
}

// WithWorkers sets how many outputs within a single transaction may be
// recognized concurrently. The default, 1, runs strictly sequentially.
// Output order in the returned slice is unaffected either way.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger attaches a structured logger: one line at LevelGray or
// LevelError per skipped transaction or output, and one line at
// LevelInfo per block scanned with ScanBlock. It never logs key
// material, only hashes, indices, and skip reasons. The default is a
// Nop logger.
func WithLogger(l logx.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScanner constructs a Scanner for the given 32-byte little-endian
// private view key. The only error it can return is BadScalarEncoding,
// and only for a key of the wrong length — any 32-byte string decodes to
// some scalar, reduced modulo the group order if necessary.
func NewScanner(viewKey [32]byte, opts ...Option) (*Scanner, error) {
	viewPriv, err := curve.ScalarFromBytes(viewKey[:])
	if err != nil {
		return nil, newScanError(KindBadScalarEncoding, "private view key: %w", err)
	}
	s := &Scanner{
		viewPriv:        viewPriv,
		ceilingPiconero: ceilingPiconero(defaultSafeAmountCeilingXMR),
		workers:         1,
		logger:          logx.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// logSkip reports a transaction- or output-level skip. A non-skippable
// error (BadScalarEncoding never reaches here; InternalInvariant does)
// logs at LevelError since it indicates a bug rather than routine
// adversarial or malformed input.
func (s *Scanner) logSkip(txHash string, index int, err error) {
	if err == nil {
		return
	}
	level := logx.LevelGray
	if !IsSkippable(err) {
		level = logx.LevelError
	}
	if index < 0 {
		s.logger.NotifyWithLevel(fmt.Sprintf("tx %s: skipped: %v", txHash, err), level)
		return
	}
	s.logger.NotifyWithLevel(fmt.Sprintf("tx %s output %d: skipped: %v", txHash, index, err), level)
}

// ScanTransaction applies the recognizer to every output of a single
// transaction and attaches per-transaction metadata to survivors. A
// transaction whose extra blob carries no usable tx public key yields no
// candidates without touching the curve at all.
func (s *Scanner) ScanTransaction(tx wire.Transaction) []CandidateOutput {
	parsed := txextra.Parse(tx.Extra)
	if !parsed.HasTxPubKey && len(parsed.Additional) == 0 {
		s.logSkip(tx.Hash, -1, newScanError(KindMalformedExtra, "no usable tx public key in extra"))
		return nil
	}

	type slot struct {
		candidate *CandidateOutput
		paymentID *[8]byte
	}
	slots := make([]slot, len(tx.Vout))

	recognizeAt := func(i int) {
		hasAmount := i < len(tx.RctSignatures.EcdhInfo)
		var amount wire.Amount8
		if hasAmount {
			amount = tx.RctSignatures.EcdhInfo[i].Amount
		}
		candidate, paymentID, err := recognizeOutput(
			parsed, tx.Vout[i], amount, hasAmount,
			i, s.viewPriv, s.ceilingPiconero,
		)
		if err != nil {
			s.logSkip(tx.Hash, i, err)
		}
		slots[i] = slot{candidate: candidate, paymentID: paymentID}
	}

	if s.workers <= 1 || len(tx.Vout) <= 1 {
		for i := range tx.Vout {
			recognizeAt(i)
		}
	} else {
		var wg sync.WaitGroup
		sem := make(chan struct{}, s.workers)
		for i := range tx.Vout {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				recognizeAt(i)
			}(i)
		}
		wg.Wait()
	}

	isCoinbase := tx.IsCoinbase()
	out := make([]CandidateOutput, 0, len(slots))
	for i, sl := range slots {
		if sl.candidate == nil {
			continue
		}
		c := *sl.candidate
		c.OutputIndex = i
		c.TxHash = tx.Hash
		c.TxVersion = tx.Version
		c.UnlockTime = tx.UnlockTime
		c.InputCount = len(tx.Vin)
		c.OutputCount = len(tx.Vout)
		c.RctType = tx.RctSignatures.Type
		c.IsCoinbase = isCoinbase
		if sl.paymentID != nil {
			pid := PaymentID8(*sl.paymentID)
			c.PaymentID = &pid
		}
		out = append(out, c)
	}
	return out
}

// ScanBlock runs ScanTransaction across a block's miner transaction and
// its ordinary transactions, in that order, and concatenates the
// results. The returned sequence preserves (transaction index, output
// index) ascending order.
func (s *Scanner) ScanBlock(block wire.Block) []CandidateOutput {
	start := time.Now()

	var out []CandidateOutput
	out = append(out, s.ScanTransaction(block.Miner)...)
	for _, tx := range block.Txs {
		out = append(out, s.ScanTransaction(tx)...)
	}

	s.logger.NotifyWithLevel(fmt.Sprintf(
		"block %d: scanned %d transaction(s), %d candidate(s), elapsed %s",
		block.Height, 1+len(block.Txs), len(out), time.Since(start),
	), logx.LevelInfo)

	return out
}
