// Package ethapi is the JSON-RPC method surface: a single-threaded
// Provider that ties the blockchain store, state, mempool, miner, and
// filter registry together behind the eth_*/net_*/web3_*/evm_*/hardhat_*/
// debug_* methods, performing BlockSpec resolution, hardfork gating, and
// EIP-1474 JSON shape conversion on the way in and out.
//
// Grounded on internal/ethapi/api_test.go's method-table naming
// convention (the teacher's own handler implementation files were not
// present in the retrieval pack, only api_test.go and its xdc/bor
// variants) and on original_source/crates/edr_provider's request-handling
// modules (one file per method family) for which methods exist and how
// BlockSpec, impersonation, and the irregular-state machinery interact.
package ethapi
