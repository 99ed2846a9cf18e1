// Package sweep splits a block range into request-sized windows.
//
// Providers time out log queries that span too many blocks, so callers scan
// the chain in fixed-width intervals instead of one large request.
package sweep

import "time"

// DefaultBlockTime is the assumed block production interval when the caller
// does not provide one.
const DefaultBlockTime = 15 * time.Second

// DefaultSpan is the wall-clock span covered by a single log request.
const DefaultSpan = 4 * 30 * 24 * time.Hour

// BlockInterval is an inclusive block range used as a log filter.
type BlockInterval struct {
	FromBlock uint64 `json:"from_block"`
	ToBlock   uint64 `json:"to_block"`
}

// Width returns the number of blocks covered by the interval.
func (i BlockInterval) Width() uint64 {
	return i.ToBlock - i.FromBlock + 1
}

// Intervals returns contiguous, ascending intervals covering [fromBlock, height].
// Every interval spans exactly blocksPerRequest blocks except possibly the last.
//
// A height below fromBlock yields no intervals. A zero blocksPerRequest yields
// one interval over the whole range.
func Intervals(fromBlock, height, blocksPerRequest uint64) []BlockInterval {
	if height < fromBlock {
		return nil
	}
	if blocksPerRequest == 0 {
		return []BlockInterval{{FromBlock: fromBlock, ToBlock: height}}
	}

	total := height - fromBlock + 1
	n := (total + blocksPerRequest - 1) / blocksPerRequest
	intervals := make([]BlockInterval, 0, n)
	for from := fromBlock; ; from += blocksPerRequest {
		to := from + blocksPerRequest - 1
		if to >= height || to < from { // second check guards uint64 overflow
			intervals = append(intervals, BlockInterval{FromBlock: from, ToBlock: height})
			break
		}
		intervals = append(intervals, BlockInterval{FromBlock: from, ToBlock: to})
	}
	return intervals
}

// BlocksPerRequest returns the number of blocks produced during DefaultSpan
// at the given block time. A non-positive blockTime falls back to
// DefaultBlockTime.
func BlocksPerRequest(blockTime time.Duration) uint64 {
	return BlocksPerSpan(blockTime, DefaultSpan)
}

// BlocksPerSpan returns the number of blocks produced during span.
// Block production is counted in whole blocks per minute.
func BlocksPerSpan(blockTime, span time.Duration) uint64 {
	if blockTime <= 0 {
		blockTime = DefaultBlockTime
	}
	perMinute := uint64(time.Minute / blockTime)
	if perMinute == 0 {
		perMinute = 1
	}
	return perMinute * uint64(span/time.Minute)
}
