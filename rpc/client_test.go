package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBlockAtHeight(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json_rpc" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var req jsonRPCRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Method != "get_block" {
			t.Fatalf("unexpected method: %s", req.Method)
		}

		inner := `{"miner_tx":{"version":2,"vin":[{"gen":{"height":12345}}],"vout":[]},"tx_hashes":["aa","bb"]}`
		resp := map[string]any{
			"jsonrpc": "2.0",
			"id":      "0",
			"result": map[string]any{
				"blob":      "",
				"json":      inner,
				"tx_hashes": []string{"aa", "bb"},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	miner, hashes, err := client.BlockAtHeight(context.Background(), 12345)
	if err != nil {
		t.Fatalf("BlockAtHeight: %v", err)
	}
	if !miner.IsCoinbase() {
		t.Fatalf("expected the miner tx to be coinbase")
	}
	if miner.Vin[0].Gen.Height != 12345 {
		t.Fatalf("height: got %d, want 12345", miner.Vin[0].Gen.Height)
	}
	if len(hashes) != 2 || hashes[0] != "aa" || hashes[1] != "bb" {
		t.Fatalf("tx hashes mismatch: %v", hashes)
	}
}

func TestTransactionsBatchesAt100(t *testing.T) {
	var batchSizes []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req getTransactionsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		batchSizes = append(batchSizes, len(req.TxsHashes))
		if !req.DecodeAsJSON {
			t.Fatalf("expected decode_as_json to be true")
		}

		txsAsJSON := make([]string, len(req.TxsHashes))
		for i := range req.TxsHashes {
			txsAsJSON[i] = `{"version":2,"vin":[{}],"vout":[]}`
		}
		json.NewEncoder(w).Encode(getTransactionsResponse{TxsAsJSON: txsAsJSON, Status: "OK"})
	}))
	defer server.Close()

	hashes := make([]string, 150)
	for i := range hashes {
		hashes[i] = "h"
	}

	client := NewClient(server.URL)
	txs, err := client.Transactions(context.Background(), hashes)
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if len(txs) != 150 {
		t.Fatalf("expected 150 transactions, got %d", len(txs))
	}
	if len(batchSizes) != 2 || batchSizes[0] != 100 || batchSizes[1] != 50 {
		t.Fatalf("expected batches of 100 then 50, got %v", batchSizes)
	}
}

func TestTransactionsSurfacesDaemonErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(getTransactionsResponse{Status: "Failed"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Transactions(context.Background(), []string{"aa"}); err == nil {
		t.Fatalf("expected an error for a non-OK status")
	}
}
