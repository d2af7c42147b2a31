package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethdevnode/edr/common"
)

func newTestServer(t *testing.T, handler func(method string, params json.RawMessage) (any, error)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, err := handler(req.Method, req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if err != nil {
			resp["error"] = map[string]any{"code": -32000, "message": err.Error()}
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetBalanceDecodesHexQuantity(t *testing.T) {
	srv := newTestServer(t, func(method string, params json.RawMessage) (any, error) {
		require.Equal(t, "eth_getBalance", method)
		return "0x3b9aca00", nil
	})
	c, err := NewClient(srv.URL, 1, "")
	require.NoError(t, err)

	bal, err := c.GetBalance(context.Background(), common.Address{0x01}, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(1000000000), bal.Uint64())
}

func TestGetCodeDecodesHexBytes(t *testing.T) {
	srv := newTestServer(t, func(method string, params json.RawMessage) (any, error) {
		require.Equal(t, "eth_getCode", method)
		return "0x6001600155", nil
	})
	c, err := NewClient(srv.URL, 1, "")
	require.NoError(t, err)

	code, err := c.GetCode(context.Background(), common.Address{0x01}, 100)
	require.NoError(t, err)
	require.Equal(t, []byte{0x60, 0x01, 0x60, 0x01, 0x55}, code)
}

func TestGetStorageAtDecodesHash(t *testing.T) {
	want := common.Hash{0x42}
	srv := newTestServer(t, func(method string, params json.RawMessage) (any, error) {
		return want.Hex(), nil
	})
	c, err := NewClient(srv.URL, 1, "")
	require.NoError(t, err)

	got, err := c.GetStorageAt(context.Background(), common.Address{0x01}, common.Hash{0x02}, 100)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestBlockByNumberDecodesHeaderAndTransactions(t *testing.T) {
	blockJSON := map[string]any{
		"parentHash":       common.Hash{0x01}.Hex(),
		"sha3Uncles":       common.Hash{}.Hex(),
		"miner":            common.Address{0x02}.Hex(),
		"stateRoot":        common.Hash{0x03}.Hex(),
		"transactionsRoot": common.Hash{0x04}.Hex(),
		"receiptsRoot":     common.Hash{0x05}.Hex(),
		"logsBloom":        "0x" + strings.Repeat("00", 256),
		"difficulty":       "0x0",
		"number":           "0x64",
		"gasLimit":         "0x1c9c380",
		"gasUsed":          "0x5208",
		"timestamp":        "0x66112233",
		"extraData":        "0x",
		"mixHash":          common.Hash{}.Hex(),
		"nonce":            "0x0000000000000000",
		"baseFeePerGas":    "0x3b9aca00",
		"transactions": []map[string]any{
			{
				"nonce":    "0x0",
				"to":       common.Address{0x09}.Hex(),
				"value":    "0xde0b6b3a7640000",
				"gas":      "0x5208",
				"gasPrice": "0x3b9aca00",
				"input":    "0x",
				"v":        "0x1b",
				"r":        "0x1",
				"s":        "0x2",
			},
		},
	}
	srv := newTestServer(t, func(method string, params json.RawMessage) (any, error) {
		require.Equal(t, "eth_getBlockByNumber", method)
		return blockJSON, nil
	})
	c, err := NewClient(srv.URL, 1, "")
	require.NoError(t, err)

	block, err := c.BlockByNumber(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, uint64(100), block.Number())
	require.Len(t, block.Transactions, 1)
	require.Equal(t, uint64(21000), block.Transactions[0].Gas())
}

func TestReceiptByTransactionHashDecodesStatusAndLogs(t *testing.T) {
	receiptJSON := map[string]any{
		"status":            "0x1",
		"cumulativeGasUsed": "0x5208",
		"gasUsed":           "0x5208",
		"transactionHash":   common.Hash{0x07}.Hex(),
		"blockHash":         common.Hash{0x08}.Hex(),
		"blockNumber":       "0x64",
		"transactionIndex":  "0x0",
		"logs": []map[string]any{
			{
				"address":     common.Address{0x0a}.Hex(),
				"topics":      []string{common.Hash{0x0b}.Hex()},
				"data":        "0x",
				"blockNumber": "0x64",
			},
		},
	}
	srv := newTestServer(t, func(method string, params json.RawMessage) (any, error) {
		require.Equal(t, "eth_getTransactionReceipt", method)
		return receiptJSON, nil
	})
	c, err := NewClient(srv.URL, 1, "")
	require.NoError(t, err)

	r, err := c.ReceiptByTransactionHash(context.Background(), common.Hash{0x07})
	require.NoError(t, err)
	require.Equal(t, uint64(1), r.Status)
	require.Len(t, r.Logs, 1)
	require.Equal(t, common.Address{0x0a}, r.Logs[0].Address)
}

func TestCallPropagatesRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"boom"}}`))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, 1, "")
	require.NoError(t, err)

	_, err = c.GetBalance(context.Background(), common.Address{}, 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}
