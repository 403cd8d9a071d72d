package abi

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AsBigInt coerces a decoded value to *big.Int.
func AsBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return v, nil
	case uint8:
		return big.NewInt(int64(v)), nil
	case uint16:
		return big.NewInt(int64(v)), nil
	case uint32:
		return big.NewInt(int64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("not an integer: %T", value)
	}
}

// AsAddress coerces a decoded value to common.Address.
func AsAddress(value interface{}) (common.Address, error) {
	addr, ok := value.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("not an address: %T", value)
	}
	return addr, nil
}

// AsBool coerces a decoded value to bool.
func AsBool(value interface{}) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("not a bool: %T", value)
	}
	return b, nil
}
