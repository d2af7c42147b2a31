// Package params holds network-wide constants: hardfork activation tables,
// reorg-safe block depths, and the defaults a local devnode boots with.
package params

// Spec identifies an Ethereum protocol upgrade, ordered chronologically.
// The transaction/block executor seam (core/vm.Interpreter) is configured
// per-block from the Spec that governs its number; this package only
// tracks activation boundaries, not EVM semantics.
type Spec int

const (
	Frontier Spec = iota
	FrontierThawing
	Homestead
	DAOFork
	Tangerine
	SpuriousDragon
	Byzantium
	Constantinople
	Petersburg
	Istanbul
	MuirGlacier
	Berlin
	London
	ArrowGlacier
	GrayGlacier
	Merge
	Shanghai
	Cancun
)

func (s Spec) String() string {
	switch s {
	case Frontier:
		return "Frontier"
	case FrontierThawing:
		return "FrontierThawing"
	case Homestead:
		return "Homestead"
	case DAOFork:
		return "DAOFork"
	case Tangerine:
		return "Tangerine"
	case SpuriousDragon:
		return "SpuriousDragon"
	case Byzantium:
		return "Byzantium"
	case Constantinople:
		return "Constantinople"
	case Petersburg:
		return "Petersburg"
	case Istanbul:
		return "Istanbul"
	case MuirGlacier:
		return "MuirGlacier"
	case Berlin:
		return "Berlin"
	case London:
		return "London"
	case ArrowGlacier:
		return "ArrowGlacier"
	case GrayGlacier:
		return "GrayGlacier"
	case Merge:
		return "Merge"
	case Shanghai:
		return "Shanghai"
	case Cancun:
		return "Cancun"
	default:
		return "Unknown"
	}
}

// AtLeast reports whether s has activated by the time other has (s >= other
// in upgrade order).
func (s Spec) AtLeast(other Spec) bool { return s >= other }

type activation struct {
	block uint64
	spec  Spec
}

// chainConfig is a chain's hardfork activation table plus display name.
type chainConfig struct {
	name       string
	hardforks  []activation // ascending by block
	safeDepth  uint64
}

var mainnetHardforks = []activation{
	{0, Frontier},
	{200_000, FrontierThawing},
	{1_150_000, Homestead},
	{1_920_000, DAOFork},
	{2_463_000, Tangerine},
	{2_675_000, SpuriousDragon},
	{4_370_000, Byzantium},
	{7_280_000, Petersburg},
	{9_069_000, Istanbul},
	{9_200_000, MuirGlacier},
	{12_244_000, Berlin},
	{12_965_000, London},
	{13_773_000, ArrowGlacier},
	{15_050_000, GrayGlacier},
	{15_537_394, Merge},
	{17_034_870, Shanghai},
}

var ropstenHardforks = []activation{
	{1_700_000, Byzantium},
	{4_230_000, Constantinople},
	{4_939_394, Petersburg},
	{6_485_846, Istanbul},
	{7_117_117, MuirGlacier},
	{9_812_189, Berlin},
	{10_499_401, London},
}

var rinkebyHardforks = []activation{
	{1_035_301, Byzantium},
	{3_660_663, Constantinople},
	{4_321_234, Petersburg},
	{5_435_345, Istanbul},
	{8_290_928, Berlin},
	{8_897_988, London},
}

var goerliHardforks = []activation{
	{1_561_651, Istanbul},
	{4_460_644, Berlin},
	{5_062_605, London},
}

var kovanHardforks = []activation{
	{5_067_000, Byzantium},
	{9_200_000, Constantinople},
	{10_255_201, Petersburg},
	{14_111_141, Istanbul},
	{24_770_900, Berlin},
	{26_741_100, London},
}

// Well-known chain IDs.
const (
	MainnetChainID = 1
	RopstenChainID = 3
	RinkebyChainID = 4
	GoerliChainID  = 5
	KovanChainID   = 42
	GnosisChainID  = 100
	HardhatChainID = 31337
)

// DefaultSafeBlockDepth is used for chains without a known reorg-safety
// profile.
const DefaultSafeBlockDepth = 128

var chainConfigs = map[uint64]*chainConfig{
	MainnetChainID: {name: "mainnet", hardforks: mainnetHardforks, safeDepth: 32},
	RopstenChainID: {name: "ropsten", hardforks: ropstenHardforks, safeDepth: 100},
	RinkebyChainID: {name: "rinkeby", hardforks: rinkebyHardforks, safeDepth: DefaultSafeBlockDepth},
	GoerliChainID:  {name: "goerli", hardforks: goerliHardforks, safeDepth: DefaultSafeBlockDepth},
	KovanChainID:   {name: "kovan", hardforks: kovanHardforks, safeDepth: DefaultSafeBlockDepth},
	GnosisChainID:  {name: "gnosis", hardforks: nil, safeDepth: 38},
}

// HardforkAt returns the Spec active at blockNumber for chainID. Chains
// without a registered activation table (including the local devnode's
// default 31337) fall back to fallback, which the provider sets from its
// configuration (hardhat's default is the latest known spec, Cancun).
func HardforkAt(chainID, blockNumber uint64, fallback Spec) Spec {
	cfg, ok := chainConfigs[chainID]
	if !ok || len(cfg.hardforks) == 0 {
		return fallback
	}
	active := cfg.hardforks[0].spec
	for _, a := range cfg.hardforks {
		if blockNumber < a.block {
			break
		}
		active = a.spec
	}
	return active
}

// ChainName returns the well-known name for chainID, if any.
func ChainName(chainID uint64) (string, bool) {
	cfg, ok := chainConfigs[chainID]
	if !ok {
		return "", false
	}
	return cfg.name, true
}

// SafeBlockDepth returns the number of confirmations after which a block on
// chainID is considered reorg-safe and thus durably cacheable.
func SafeBlockDepth(chainID uint64) uint64 {
	if cfg, ok := chainConfigs[chainID]; ok {
		return cfg.safeDepth
	}
	return DefaultSafeBlockDepth
}
