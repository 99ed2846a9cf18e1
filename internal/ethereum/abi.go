package ethereum

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract ABIs, reduced to the read-only surface this module uses.

const registryABIJSON = `[
  {"type":"function","name":"itemCount","stateMutability":"view","inputs":[],"outputs":[{"name":"count","type":"uint256"}]},
  {"type":"function","name":"challengePeriodDuration","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"arbitrator","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"arbitratorExtraData","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes"}]},
  {"type":"function","name":"submissionBaseDeposit","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"removalBaseDeposit","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"submissionChallengeBaseDeposit","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"removalChallengeBaseDeposit","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"event","name":"MetaEvidence","anonymous":false,"inputs":[
    {"name":"_metaEvidenceID","type":"uint256","indexed":true},
    {"name":"_evidence","type":"string","indexed":false}]},
  {"type":"event","name":"ItemStatusChange","anonymous":false,"inputs":[
    {"name":"_itemID","type":"bytes32","indexed":true},
    {"name":"_requestIndex","type":"uint256","indexed":true},
    {"name":"_roundIndex","type":"uint256","indexed":true},
    {"name":"_disputed","type":"bool","indexed":false},
    {"name":"_resolved","type":"bool","indexed":false}]}
]`

const queryResultComponents = `[
  {"name":"ID","type":"bytes32"},
  {"name":"data","type":"bytes"},
  {"name":"status","type":"uint8"},
  {"name":"disputed","type":"bool"},
  {"name":"resolved","type":"bool"},
  {"name":"disputeID","type":"uint256"},
  {"name":"appealCost","type":"uint256"},
  {"name":"appealed","type":"bool"},
  {"name":"appealStart","type":"uint256"},
  {"name":"appealEnd","type":"uint256"},
  {"name":"ruling","type":"uint8"},
  {"name":"requester","type":"address"},
  {"name":"challenger","type":"address"},
  {"name":"arbitrator","type":"address"},
  {"name":"arbitratorExtraData","type":"bytes"},
  {"name":"currentRuling","type":"uint8"},
  {"name":"hasPaid","type":"bool[3]"},
  {"name":"feeRewards","type":"uint256"},
  {"name":"submissionTime","type":"uint256"},
  {"name":"amountPaid","type":"uint256[3]"},
  {"name":"disputeStatus","type":"uint8"},
  {"name":"numberOfRequests","type":"uint256"}
]`

const viewABIJSON = `[
  {"type":"function","name":"getItem","stateMutability":"view",
   "inputs":[{"name":"_address","type":"address"},{"name":"_itemID","type":"bytes32"}],
   "outputs":[{"name":"result","type":"tuple","components":` + queryResultComponents + `}]},
  {"type":"function","name":"findIndexForPage","stateMutability":"view",
   "inputs":[{"name":"_address","type":"address"},{"name":"_targets","type":"uint256[4]"},{"name":"_filter","type":"bool[9]"},{"name":"_party","type":"address"}],
   "outputs":[{"name":"index","type":"uint256"},{"name":"hasMore","type":"bool"},{"name":"indexFound","type":"bool"}]},
  {"type":"function","name":"queryItems","stateMutability":"view",
   "inputs":[{"name":"_address","type":"address"},{"name":"_cursorIndex","type":"uint256"},{"name":"_count","type":"uint256"},{"name":"_filter","type":"bool[8]"},{"name":"_oldestFirst","type":"bool"},{"name":"_party","type":"address"},{"name":"_limit","type":"uint256"}],
   "outputs":[{"name":"results","type":"tuple[]","components":` + queryResultComponents + `},{"name":"hasMore","type":"bool"}]}
]`

const arbitratorABIJSON = `[
  {"type":"function","name":"arbitrationCost","stateMutability":"view",
   "inputs":[{"name":"_extraData","type":"bytes"}],
   "outputs":[{"name":"cost","type":"uint256"}]}
]`

const factoryABIJSON = `[
  {"type":"event","name":"NewGTCR","anonymous":false,"inputs":[{"name":"_address","type":"address","indexed":true}]}
]`

var (
	RegistryABI   = mustParseABI(registryABIJSON)
	ViewABI       = mustParseABI(viewABIJSON)
	ArbitratorABI = mustParseABI(arbitratorABIJSON)
	FactoryABI    = mustParseABI(factoryABIJSON)
)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic("parse contract ABI: " + err.Error())
	}
	return parsed
}
