// Command xmrscan scans a range of blocks on a monerod daemon for
// outputs belonging to a private view key, printing each recognized
// output as a line of JSON on stdout.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/0xAF4/xmrviewscan"
	"github.com/0xAF4/xmrviewscan/address"
	"github.com/0xAF4/xmrviewscan/internal/logx"
	"github.com/0xAF4/xmrviewscan/internal/wire"
	"github.com/0xAF4/xmrviewscan/rpc"
)

func main() {
	var (
		daemonURL   = flag.String("daemon", "http://127.0.0.1:18081", "monerod RPC base URL")
		viewKeyHex  = flag.String("view-key", "", "private view key, 64 hex characters (required)")
		addressStr  = flag.String("address", "", "reconcile candidates against this address's public spend key (optional)")
		fromHeight  = flag.Int("from", 0, "first block height to scan")
		toHeight    = flag.Int("to", 0, "last block height to scan, inclusive")
		ceilingXMR  = flag.Uint64("safe-amount-ceiling", 9999, "discard outputs decrypting above this many XMR")
		workers     = flag.Int("workers", 1, "outputs recognized concurrently per transaction")
		socks5Proxy = flag.String("socks5", "", "SOCKS5 proxy address (host:port) for daemon requests")
	)
	flag.Parse()

	logger := logx.NewStdLogger()

	viewKey, err := parseViewKey(*viewKeyHex)
	if err != nil {
		logger.NotifyWithLevel(err.Error(), logx.LevelError)
		os.Exit(2)
	}

	var ownedSpendKey *[32]byte
	if *addressStr != "" {
		decoded, err := address.Decode(*addressStr)
		if err != nil {
			logger.NotifyWithLevel(fmt.Sprintf("-address: %v", err), logx.LevelError)
			os.Exit(2)
		}
		ownedSpendKey = &decoded.PublicSpendKey
	}

	scanner, err := xmrviewscan.NewScanner(viewKey,
		xmrviewscan.WithSafeAmountCeilingXMR(*ceilingXMR),
		xmrviewscan.WithWorkers(*workers),
		xmrviewscan.WithLogger(logger),
	)
	if err != nil {
		logger.NotifyWithLevel(fmt.Sprintf("constructing scanner: %v", err), logx.LevelError)
		os.Exit(1)
	}

	var rpcOpts []rpc.ClientOption
	if *socks5Proxy != "" {
		rpcOpts = append(rpcOpts, rpc.WithSOCKS5(*socks5Proxy, nil))
	}
	client := rpc.NewClient(*daemonURL, rpcOpts...)

	ctx := context.Background()
	encoder := json.NewEncoder(os.Stdout)

	for height := *fromHeight; height <= *toHeight; height++ {
		if err := scanOneBlock(ctx, client, scanner, logger, encoder, height, ownedSpendKey); err != nil {
			logger.NotifyWithLevel(fmt.Sprintf("block %d: %v", height, err), logx.LevelWarning)
			continue
		}
	}
}

// reconcile drops candidates whose recovered public spend key does not
// match ownedSpendKey. This is the check CandidateOutput's own doc
// comment says every caller must do against its authoritative owned-key
// set; here the CLI does it for the single address it was given.
func reconcile(candidates []xmrviewscan.CandidateOutput, ownedSpendKey *[32]byte, logger logx.Logger) []xmrviewscan.CandidateOutput {
	if ownedSpendKey == nil {
		return candidates
	}
	out := make([]xmrviewscan.CandidateOutput, 0, len(candidates))
	for _, c := range candidates {
		if [32]byte(c.RecoveredPublicSpendKey) != *ownedSpendKey {
			logger.NotifyWithLevel(fmt.Sprintf(
				"tx %s output %d: recovered spend key does not match -address, discarding",
				c.TxHash, c.OutputIndex,
			), logx.LevelWarning)
			continue
		}
		out = append(out, c)
	}
	return out
}

func scanOneBlock(ctx context.Context, client *rpc.Client, scanner *xmrviewscan.Scanner, logger logx.Logger, encoder *json.Encoder, height int, ownedSpendKey *[32]byte) error {
	miner, txHashes, err := client.BlockAtHeight(ctx, height)
	if err != nil {
		return fmt.Errorf("get_block: %w", err)
	}

	txs, err := client.Transactions(ctx, txHashes)
	if err != nil {
		return fmt.Errorf("get_transactions: %w", err)
	}

	block := wire.Block{Height: uint64(height), Miner: miner, Txs: txs}
	candidates := reconcile(scanner.ScanBlock(block), ownedSpendKey, logger)

	for _, c := range candidates {
		if err := encoder.Encode(c); err != nil {
			return fmt.Errorf("encoding candidate output: %w", err)
		}
	}

	if len(candidates) > 0 {
		logger.NotifyWithLevel(fmt.Sprintf("block %d: %d candidate output(s)", height, len(candidates)), logx.LevelSuccess)
	}
	return nil
}

func parseViewKey(s string) ([32]byte, error) {
	var out [32]byte
	if s == "" {
		return out, fmt.Errorf("a private view key is required (-view-key)")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("-view-key: %w", err)
	}
	if len(b) != 32 {
		return out, fmt.Errorf("-view-key: expected 32 bytes (64 hex chars), got %d bytes", len(b))
	}
	copy(out[:], b)
	return out, nil
}
