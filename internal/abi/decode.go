package abi

import (
	"errors"
	"fmt"
	"strings"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/yagosupro/ethparser/internal/model"
)

var (
	// ErrMalformedInput marks input that can never decode: too short,
	// bad hex, or a payload that does not match the registered parameters.
	ErrMalformedInput = errors.New("malformed input")
	// ErrUnknownMethod marks call data whose method ID is not registered.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrNotReady marks a decode attempted before the decoder was wired to
	// a registry. Callers may retry once construction is complete; the data
	// itself is not at fault.
	ErrNotReady = errors.New("decoder not ready")
)

// CallData is the decoded form of a transaction input.
type CallData struct {
	MethodID string
	Name     string
	Values   []interface{}
}

// DecodedLog is the decoded form of an event log: indexed values in
// declaration order, then non-indexed values in declaration order.
type DecodedLog struct {
	MethodID string
	Name     string
	Values   []interface{}
}

type methodArgs struct {
	indexed    []Param
	indexedRaw []gethabi.Arguments // one single-argument list per indexed param
	nonIndexed gethabi.Arguments
	all        gethabi.Arguments
}

// Decoder decodes call data and event logs against a Registry. The word
// level unpacking is delegated to go-ethereum's abi package; the Decoder
// owns dispatch, parameter ordering, and the error taxonomy.
type Decoder struct {
	reg  *Registry
	args map[string]methodArgs
}

// NewDecoder precomputes go-ethereum argument lists for every registered
// signature. A conversion failure is a broken registry entry and fatal.
func NewDecoder(reg *Registry) (*Decoder, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	args := make(map[string]methodArgs, len(reg.paramsByMethodID))
	for id, params := range reg.paramsByMethodID {
		entry := methodArgs{}
		for _, p := range params {
			t, err := gethabi.NewType(p.Type.Canonical(), "", nil)
			if err != nil {
				name, _ := reg.Name(id)
				return nil, fmt.Errorf("signature %s: %s: %w", name, p.Type.Canonical(), err)
			}
			arg := gethabi.Argument{Type: t, Indexed: p.Indexed}
			entry.all = append(entry.all, arg)
			if p.Indexed {
				entry.indexed = append(entry.indexed, p)
				arg.Indexed = false
				entry.indexedRaw = append(entry.indexedRaw, gethabi.Arguments{arg})
			} else {
				entry.nonIndexed = append(entry.nonIndexed, arg)
			}
		}
		args[id] = entry
	}
	return &Decoder{reg: reg, args: args}, nil
}

// DecodeCallData decodes transaction input against the registered
// parameter list for its 4-byte method ID.
func (d *Decoder) DecodeCallData(input string) (*CallData, error) {
	if d == nil || d.reg == nil {
		return nil, ErrNotReady
	}
	if len(input) < 10 || !strings.HasPrefix(input, "0x") {
		return nil, fmt.Errorf("%w: input %q too short", ErrMalformedInput, input)
	}
	id := strings.ToLower(input[:10])
	entry, ok := d.args[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, id)
	}

	data, err := hexutil.Decode("0x" + input[10:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	values := []interface{}{}
	if len(entry.all) > 0 {
		plain := make(gethabi.Arguments, len(entry.all))
		for i, a := range entry.all {
			a.Indexed = false
			plain[i] = a
		}
		values, err = plain.Unpack(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
	}

	name, _ := d.reg.Name(id)
	return &CallData{MethodID: id, Name: name, Values: values}, nil
}

// DecodeLog decodes an event log. An unrecognized topic0 yields (nil, nil):
// the chain emits plenty of events outside the watched surface and they are
// not errors. Indexed parameters come from topics[1..]; dynamic indexed
// parameters are represented by their 32-byte topic hash.
func (d *Decoder) DecodeLog(lg model.LogRecord) (*DecodedLog, error) {
	if d == nil || d.reg == nil {
		return nil, ErrNotReady
	}
	if len(lg.Topics) == 0 {
		return nil, nil
	}
	id, ok := d.reg.ResolveMethodID(lg.Topics[0])
	if !ok {
		return nil, nil
	}
	entry := d.args[id]
	if len(lg.Topics)-1 != len(entry.indexed) {
		return nil, fmt.Errorf("%w: expected %d topics, got %d",
			ErrMalformedInput, len(entry.indexed)+1, len(lg.Topics))
	}

	values := make([]interface{}, 0, len(entry.all))
	for i, p := range entry.indexed {
		raw, err := hexutil.Decode(lg.Topics[i+1])
		if err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("%w: invalid topic %s", ErrMalformedInput, lg.Topics[i+1])
		}
		if p.Type.Dynamic() {
			values = append(values, raw)
			continue
		}
		decoded, err := entry.indexedRaw[i].Unpack(raw)
		if err != nil || len(decoded) != 1 {
			return nil, fmt.Errorf("%w: topic %d: %v", ErrMalformedInput, i+1, err)
		}
		values = append(values, decoded[0])
	}

	if len(entry.nonIndexed) > 0 {
		data, err := hexutil.Decode(lg.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid data: %v", ErrMalformedInput, err)
		}
		decoded, err := entry.nonIndexed.Unpack(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		values = append(values, decoded...)
	}

	name, _ := d.reg.Name(id)
	return &DecodedLog{MethodID: id, Name: name, Values: values}, nil
}
