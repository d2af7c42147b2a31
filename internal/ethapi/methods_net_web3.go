package ethapi

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/ethdevnode/edr/common/hexutil"
	"github.com/ethdevnode/edr/crypto"
)

var netWeb3Methods = map[string]methodHandler{
	"net_version":        (*Provider).netVersion,
	"net_listening":      (*Provider).netListening,
	"net_peerCount":      (*Provider).netPeerCount,
	"web3_clientVersion": (*Provider).web3ClientVersion,
	"web3_sha3":          (*Provider).web3Sha3,
}

func (p *Provider) netVersion(_ context.Context, _ json.RawMessage) (any, error) {
	return strconv.FormatUint(p.cfg.ChainID, 10), nil
}

func (p *Provider) netListening(_ context.Context, _ json.RawMessage) (any, error) { return true, nil }

func (p *Provider) netPeerCount(_ context.Context, _ json.RawMessage) (any, error) {
	return hexutil.EncodeUint64(0), nil
}

func (p *Provider) web3ClientVersion(_ context.Context, _ json.RawMessage) (any, error) {
	return "edr/1.0.0", nil
}

func (p *Provider) web3Sha3(_ context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var data hexutil.Bytes
	if err := json.Unmarshal(paramAt(args, 0), &data); err != nil {
		return nil, err
	}
	return crypto.Keccak256Hash(data), nil
}
