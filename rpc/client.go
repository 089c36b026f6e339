// Package rpc is the thin glue between a monerod daemon and the scanner
// core: a JSON-RPC get_block call to enumerate a block's miner
// transaction and transaction hash list, plus a raw get_transactions
// call (batched, since the daemon caps request size) to fetch the
// referenced transaction bodies as the logical JSON shape the core
// consumes. It does no cryptography and holds no view key.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"

	"github.com/0xAF4/xmrviewscan/internal/wire"
)

// DialTimeout bounds how long establishing the underlying TCP (or SOCKS5)
// connection to the daemon may take.
const DialTimeout = 15 * time.Second

// batchSize is the maximum number of transaction hashes sent in a single
// get_transactions request. Monerod accepts larger batches but the
// reference wire contract specifies this as the collaborator's batching
// policy.
const batchSize = 100

// ContextDialer is satisfied by *net.Dialer and by the context-aware
// dialer golang.org/x/net/proxy returns for a SOCKS5 endpoint.
type ContextDialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// Client talks to a single monerod daemon over HTTP(S).
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client at construction.
type ClientOption func(*clientConfig)

type clientConfig struct {
	dialer ContextDialer
}

// WithContextDialer injects a custom dialer, the same way the levin P2P
// client takes one: tests can supply an in-memory dialer, production
// code can supply one wrapping a SOCKS5 proxy.
func WithContextDialer(d ContextDialer) ClientOption {
	return func(c *clientConfig) { c.dialer = d }
}

// WithSOCKS5 routes all requests through the given SOCKS5 proxy address
// ("host:port"), optionally authenticated. Socks5 proxying is purely a
// transport concern of this client; the scanner core never sees it.
func WithSOCKS5(addr string, auth *proxy.Auth) ClientOption {
	return func(c *clientConfig) {
		d, err := proxy.SOCKS5("tcp", addr, auth, &net.Dialer{Timeout: DialTimeout})
		if err != nil {
			// proxy.SOCKS5 with a non-nil forward dialer never actually
			// errors. If it did, this option would leave the dialer
			// already configured (by default a direct net.Dialer) in
			// place, so requests would not go through the proxy.
			return
		}
		if cd, ok := d.(ContextDialer); ok {
			c.dialer = cd
			return
		}
		c.dialer = fallbackContextDialer{d}
	}
}

// fallbackContextDialer adapts a proxy.Dialer that does not implement
// DialContext itself. ctx cancellation is not honored mid-dial in that
// case; it is honored once the dial returns.
type fallbackContextDialer struct{ d proxy.Dialer }

func (f fallbackContextDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := f.d.Dial(network, addr)
		ch <- result{conn, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.conn, r.err
	}
}

// NewClient constructs a Client against a daemon reachable at baseURL
// (e.g. "http://127.0.0.1:18081").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	cfg := &clientConfig{dialer: &net.Dialer{Timeout: DialTimeout}}
	for _, opt := range opts {
		opt(cfg)
	}

	transport := &http.Transport{
		DialContext: cfg.dialer.DialContext,
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Transport: transport},
	}
}

type jsonRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type jsonRPCResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) callJSONRPC(ctx context.Context, method string, params, result any) error {
	body, err := json.Marshal(jsonRPCRequest{JSONRPC: "2.0", ID: "0", Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("rpc: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/json_rpc", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("rpc: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rpc: %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("rpc: reading %s response: %w", method, err)
	}

	var envelope jsonRPCResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("rpc: decoding %s envelope: %w", method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("rpc: %s: daemon error %d: %s", method, envelope.Error.Code, envelope.Error.Message)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("rpc: decoding %s result: %w", method, err)
	}
	return nil
}

type getBlockParams struct {
	Height int    `json:"height,omitempty"`
	Hash   string `json:"hash,omitempty"`
}

type getBlockResult struct {
	Blob     string   `json:"blob"`
	JSON     string   `json:"json"`
	TxHashes []string `json:"tx_hashes"`
}

type blockDetailsJSON struct {
	MinerTx  wire.Transaction `json:"miner_tx"`
	TxHashes []string         `json:"tx_hashes"`
}

// BlockAtHeight fetches the block header and miner transaction at a
// given height, and the ordinary transaction hash list referenced by it.
// It does not itself fetch the ordinary transaction bodies; call
// Transactions with the returned hashes for that.
func (c *Client) BlockAtHeight(ctx context.Context, height int) (miner wire.Transaction, txHashes []string, err error) {
	var res getBlockResult
	if err := c.callJSONRPC(ctx, "get_block", getBlockParams{Height: height}, &res); err != nil {
		return wire.Transaction{}, nil, err
	}
	var details blockDetailsJSON
	if err := json.Unmarshal([]byte(res.JSON), &details); err != nil {
		return wire.Transaction{}, nil, fmt.Errorf("rpc: decoding block json field: %w", err)
	}
	return details.MinerTx, details.TxHashes, nil
}

type getTransactionsRequest struct {
	TxsHashes    []string `json:"txs_hashes"`
	DecodeAsJSON bool     `json:"decode_as_json"`
}

type getTransactionsResponse struct {
	TxsAsJSON []string `json:"txs_as_json"`
	Status    string   `json:"status"`
}

// Transactions fetches the logical JSON shape of every hash in hashes,
// splitting the request into batches of at most 100 hashes per the
// daemon's accepted request size.
func (c *Client) Transactions(ctx context.Context, hashes []string) ([]wire.Transaction, error) {
	var out []wire.Transaction
	for start := 0; start < len(hashes); start += batchSize {
		end := start + batchSize
		if end > len(hashes) {
			end = len(hashes)
		}
		batch, err := c.fetchTransactionBatch(ctx, hashes[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (c *Client) fetchTransactionBatch(ctx context.Context, hashes []string) ([]wire.Transaction, error) {
	body, err := json.Marshal(getTransactionsRequest{TxsHashes: hashes, DecodeAsJSON: true})
	if err != nil {
		return nil, fmt.Errorf("rpc: encoding get_transactions request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/get_transactions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("rpc: building get_transactions request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc: get_transactions: %w", err)
	}
	defer resp.Body.Close()

	var parsed getTransactionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("rpc: decoding get_transactions response: %w", err)
	}
	if parsed.Status != "OK" {
		return nil, fmt.Errorf("rpc: get_transactions: status %q", parsed.Status)
	}

	txs := make([]wire.Transaction, 0, len(parsed.TxsAsJSON))
	for i, raw := range parsed.TxsAsJSON {
		var tx wire.Transaction
		if err := json.Unmarshal([]byte(raw), &tx); err != nil {
			return nil, fmt.Errorf("rpc: decoding transaction %d: %w", i, err)
		}
		if i < len(hashes) {
			tx.Hash = hashes[i]
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
