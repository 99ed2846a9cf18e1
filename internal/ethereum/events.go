package ethereum

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jmerrifield20/tcrview/pkg/gtcr"
)

// EventCodec encodes and decodes the events of a set of contract ABIs.
type EventCodec struct {
	byName map[string]abi.Event
	byID   map[common.Hash]abi.Event
}

// NewEventCodec indexes the events of every given ABI. Later ABIs win on
// name collisions.
func NewEventCodec(abis ...abi.ABI) *EventCodec {
	c := &EventCodec{
		byName: make(map[string]abi.Event),
		byID:   make(map[common.Hash]abi.Event),
	}
	for _, a := range abis {
		for name, ev := range a.Events {
			c.byName[name] = ev
			c.byID[ev.ID] = ev
		}
	}
	return c
}

// DefaultEventCodec knows the registry and factory events.
func DefaultEventCodec() *EventCodec {
	return NewEventCodec(RegistryABI, FactoryABI)
}

// Topic returns the topic hash identifying event name.
func (c *EventCodec) Topic(name string) (common.Hash, error) {
	ev, ok := c.byName[name]
	if !ok {
		return common.Hash{}, fmt.Errorf("unknown event %q", name)
	}
	return ev.ID, nil
}

// Decode decodes a raw log into its event name and named arguments.
func (c *EventCodec) Decode(l gtcr.RawLog) (gtcr.DecodedEvent, error) {
	if len(l.Topics) == 0 {
		return gtcr.DecodedEvent{}, fmt.Errorf("log at block %d has no topics", l.BlockNumber)
	}
	ev, ok := c.byID[l.Topics[0]]
	if !ok {
		return gtcr.DecodedEvent{}, fmt.Errorf("unknown event topic %s", l.Topics[0].Hex())
	}

	args := make(map[string]any)
	if len(l.Data) > 0 {
		if err := ev.Inputs.UnpackIntoMap(args, l.Data); err != nil {
			return gtcr.DecodedEvent{}, fmt.Errorf("unpack %s data: %w", ev.Name, err)
		}
	}
	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopicsIntoMap(args, indexed, l.Topics[1:]); err != nil {
		return gtcr.DecodedEvent{}, fmt.Errorf("parse %s topics: %w", ev.Name, err)
	}

	return gtcr.DecodedEvent{
		Name:        ev.Name,
		Address:     l.Address,
		BlockNumber: l.BlockNumber,
		LogIndex:    l.LogIndex,
		TxHash:      l.TxHash,
		Args:        args,
	}, nil
}

// Encode builds the topics and data of event name. args follow the
// declaration order of the event inputs.
func (c *EventCodec) Encode(name string, args ...any) ([]common.Hash, []byte, error) {
	ev, ok := c.byName[name]
	if !ok {
		return nil, nil, fmt.Errorf("unknown event %q", name)
	}
	if len(args) != len(ev.Inputs) {
		return nil, nil, fmt.Errorf("event %s takes %d arguments, got %d", name, len(ev.Inputs), len(args))
	}

	topics := []common.Hash{ev.ID}
	var data []any
	for i, arg := range ev.Inputs {
		if !arg.Indexed {
			data = append(data, args[i])
			continue
		}
		t, err := abi.MakeTopics([]any{args[i]})
		if err != nil {
			return nil, nil, fmt.Errorf("encode %s topic %s: %w", name, arg.Name, err)
		}
		topics = append(topics, t[0][0])
	}
	packed, err := ev.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		return nil, nil, fmt.Errorf("pack %s data: %w", name, err)
	}
	return topics, packed, nil
}
