package gtcr

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jmerrifield20/tcrview/pkg/sweep"
)

var (
	// ErrNoSchemaFound is matched by errors.Is for every *NoSchemaFoundError.
	ErrNoSchemaFound = errors.New("no meta evidence found")

	// ErrDecode is matched by errors.Is for every *DecodeError.
	ErrDecode = errors.New("item data does not match column schema")

	// ErrItemNotFound is returned by Client.Item for IDs that were never
	// submitted to the registry.
	ErrItemNotFound = errors.New("item not found")

	// ErrInvalidRange describes a sweep whose height is below the deployment
	// block. Sweeps normalize it to an empty interval set instead of failing.
	ErrInvalidRange = errors.New("chain height below deployment block")
)

// ProviderError wraps a failed remote call. The core never retries; callers
// may retry with a smaller batch size when IsProviderTimeout reports true.
type ProviderError struct {
	Op       string
	Interval *sweep.BlockInterval
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Interval != nil {
		return fmt.Sprintf("%s [blocks %d-%d]: %v", e.Op, e.Interval.FromBlock, e.Interval.ToBlock, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsProviderTimeout reports whether err was caused by a provider exceeding
// its time limit.
func IsProviderTimeout(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	if errors.Is(pe.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(pe.Err, &ne) && ne.Timeout()
}

func providerErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Op: op, Err: err}
}

// NoSchemaFoundError is returned when the registry emitted no meta-evidence
// events in the scanned block range.
type NoSchemaFoundError struct {
	Address         common.Address
	Network         string
	DeploymentBlock uint64
}

func (e *NoSchemaFoundError) Error() string {
	msg := fmt.Sprintf("no meta evidence found for registry at %s, %s.", e.Address.Hex(), e.Network)
	if e.DeploymentBlock != 0 {
		msg += fmt.Sprintf(" List deployment block set to %d.", e.DeploymentBlock)
	}
	return msg
}

func (e *NoSchemaFoundError) Is(target error) bool { return target == ErrNoSchemaFound }

// DecodeError is returned when an item payload cannot be decoded with the
// resolved column schema.
type DecodeError struct {
	ItemID common.Hash
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode item %s: %v", e.ItemID.Hex(), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
