package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestIsNotification(t *testing.T) {
	req := &Request{JSONRPC: Version, Method: "eth_blockNumber"}
	require.True(t, req.IsNotification())

	req.ID = json.RawMessage(`1`)
	require.False(t, req.IsNotification())
}

func TestNewResponseMarshalsResult(t *testing.T) {
	resp, err := NewResponse(json.RawMessage(`1`), "0x3b9aca00")
	require.NoError(t, err)
	require.Equal(t, json.RawMessage(`"0x3b9aca00"`), resp.Result)
	require.Nil(t, resp.Error)
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(json.RawMessage(`1`), NewError(CodeMethodNotFound, "method not found"))
	require.Nil(t, resp.Result)
	require.Equal(t, CodeMethodNotFound, resp.Error.Code)
}

func TestStrictUnmarshalRejectsUnknownField(t *testing.T) {
	type params struct {
		Balance string `json:"balance"`
	}
	var p params
	err := StrictUnmarshal([]byte(`{"balance":"0x1","nonce":"0x0"}`), &p)
	require.Error(t, err)

	err = StrictUnmarshal([]byte(`{"balance":"0x1"}`), &p)
	require.NoError(t, err)
	require.Equal(t, "0x1", p.Balance)
}

func TestDecodeParams(t *testing.T) {
	req := &Request{Params: json.RawMessage(`["0xc014",  "latest"]`)}
	var p []string
	require.NoError(t, req.DecodeParams(&p))
	require.Equal(t, []string{"0xc014", "latest"}, p)
}
