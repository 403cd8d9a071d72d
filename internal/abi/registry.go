package abi

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Registry maps function and event signatures to 4-byte method IDs.
//
// Entries are written once during construction; all lookups afterwards are
// read-only, so a single Registry is safe for concurrent use by every
// pipeline worker.
type Registry struct {
	paramsByMethodID map[string][]Param
	nameByMethodID   map[string]string
	methodIDByTopic  map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		paramsByMethodID: make(map[string][]Param),
		nameByMethodID:   make(map[string]string),
		methodIDByTopic:  make(map[string]string),
	}
}

// Signature renders the canonical signature string for a name and parameter
// list, e.g. Transfer(address,address,uint256).
func Signature(name string, params []Param) string {
	types := make([]string, 0, len(params))
	for _, p := range params {
		types = append(types, p.Type.Canonical())
	}
	return name + "(" + strings.Join(types, ",") + ")"
}

// FullHash returns the 32-byte keccak256 hash of a signature string as a
// 0x-prefixed hex string. topic0 of an event log carries this value.
func FullHash(signature string) string {
	return hexutil.Encode(crypto.Keccak256([]byte(signature)))
}

// ShortHash truncates a full signature hash to the 4-byte method ID used
// for call-data dispatch ("0x" + 8 hex characters).
func ShortHash(fullHash string) string {
	return fullHash[:10]
}

// Register adds an entry for name and its parameter list. A "#" suffix on
// the name marks a signature variant (Withdraw#V2) and is stripped before
// hashing, while the full name is kept for lookups. Registering the same
// signature twice overwrites the previous entry.
func (r *Registry) Register(name string, params []Param) error {
	base := name
	if idx := strings.Index(base, "#"); idx >= 0 {
		base = base[:idx]
	}
	if base == "" {
		return fmt.Errorf("empty signature name")
	}
	for _, p := range params {
		if _, err := ParseType(p.Type.Canonical()); err != nil {
			return fmt.Errorf("register %s: %w", name, err)
		}
	}

	full := FullHash(Signature(base, params))
	id := ShortHash(full)
	r.paramsByMethodID[id] = params
	r.nameByMethodID[id] = name
	r.methodIDByTopic[full] = id
	return nil
}

// MethodID computes the short method ID for a name and parameter list
// without registering it.
func MethodID(name string, params []Param) string {
	return ShortHash(FullHash(Signature(name, params)))
}

// ResolveMethodID maps a full topic0 hash back to the short method ID of
// the registered event that produced it.
func (r *Registry) ResolveMethodID(topic0 string) (string, bool) {
	id, ok := r.methodIDByTopic[strings.ToLower(topic0)]
	return id, ok
}

// Params returns the registered parameter list for a method ID.
func (r *Registry) Params(methodID string) ([]Param, bool) {
	params, ok := r.paramsByMethodID[methodID]
	return params, ok
}

// Name returns the registered name for a method ID, including any variant
// suffix.
func (r *Registry) Name(methodID string) (string, bool) {
	name, ok := r.nameByMethodID[methodID]
	return name, ok
}

// Len reports the number of registered signatures.
func (r *Registry) Len() int {
	return len(r.paramsByMethodID)
}
