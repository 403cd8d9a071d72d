package abi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates the closed set of parameter types the registry supports.
type Kind int

const (
	KindAddress Kind = iota
	KindBool
	KindUint
	KindInt
	KindBytes
	KindFixedBytes
	KindString
	KindArray
	KindFixedArray
)

// ErrUnsupportedType is returned when a signature references a type outside
// the supported set.
var ErrUnsupportedType = errors.New("unsupported abi type")

// Type describes a single ABI parameter type.
type Type struct {
	Kind Kind
	Bits int   // bit width for uint/int
	Size int   // byte size for bytesN, element count for T[N]
	Elem *Type // element type for arrays
}

// Param is a typed parameter of a function or event signature.
type Param struct {
	Type    Type
	Indexed bool
}

// Canonical renders the type to its canonical ABI name (uint256, address,
// bytes32[4], ...).
func (t Type) Canonical() string {
	switch t.Kind {
	case KindAddress:
		return "address"
	case KindBool:
		return "bool"
	case KindUint:
		return "uint" + strconv.Itoa(t.Bits)
	case KindInt:
		return "int" + strconv.Itoa(t.Bits)
	case KindBytes:
		return "bytes"
	case KindFixedBytes:
		return "bytes" + strconv.Itoa(t.Size)
	case KindString:
		return "string"
	case KindArray:
		return t.Elem.Canonical() + "[]"
	case KindFixedArray:
		return fmt.Sprintf("%s[%d]", t.Elem.Canonical(), t.Size)
	default:
		return "unknown"
	}
}

// Dynamic reports whether the type has no fixed encoded size. Indexed
// parameters of dynamic types are stored in topics as a hash, not a value.
func (t Type) Dynamic() bool {
	switch t.Kind {
	case KindBytes, KindString, KindArray:
		return true
	case KindFixedArray:
		return t.Elem.Dynamic()
	default:
		return false
	}
}

// ParseType parses a canonical ABI type name into a Type.
func ParseType(name string) (Type, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Type{}, fmt.Errorf("%w: empty name", ErrUnsupportedType)
	}

	if strings.HasSuffix(name, "]") {
		open := strings.LastIndex(name, "[")
		if open <= 0 {
			return Type{}, fmt.Errorf("%w: %s", ErrUnsupportedType, name)
		}
		elem, err := ParseType(name[:open])
		if err != nil {
			return Type{}, err
		}
		size := name[open+1 : len(name)-1]
		if size == "" {
			return Type{Kind: KindArray, Elem: &elem}, nil
		}
		n, err := strconv.Atoi(size)
		if err != nil || n <= 0 {
			return Type{}, fmt.Errorf("%w: %s", ErrUnsupportedType, name)
		}
		return Type{Kind: KindFixedArray, Size: n, Elem: &elem}, nil
	}

	switch name {
	case "address":
		return Type{Kind: KindAddress}, nil
	case "bool":
		return Type{Kind: KindBool}, nil
	case "string":
		return Type{Kind: KindString}, nil
	case "bytes":
		return Type{Kind: KindBytes}, nil
	case "uint":
		return Type{Kind: KindUint, Bits: 256}, nil
	case "int":
		return Type{Kind: KindInt, Bits: 256}, nil
	}

	if strings.HasPrefix(name, "bytes") {
		n, err := strconv.Atoi(name[len("bytes"):])
		if err != nil || n < 1 || n > 32 {
			return Type{}, fmt.Errorf("%w: %s", ErrUnsupportedType, name)
		}
		return Type{Kind: KindFixedBytes, Size: n}, nil
	}
	if strings.HasPrefix(name, "uint") {
		return parseIntWidth(name, name[len("uint"):], KindUint)
	}
	if strings.HasPrefix(name, "int") {
		return parseIntWidth(name, name[len("int"):], KindInt)
	}

	return Type{}, fmt.Errorf("%w: %s", ErrUnsupportedType, name)
}

func parseIntWidth(full, width string, kind Kind) (Type, error) {
	bits, err := strconv.Atoi(width)
	if err != nil || bits < 8 || bits > 256 || bits%8 != 0 {
		return Type{}, fmt.Errorf("%w: %s", ErrUnsupportedType, full)
	}
	return Type{Kind: kind, Bits: bits}, nil
}

// MustType parses a canonical type name and panics on failure. Intended for
// the static signature table, where a bad entry must fail at startup.
func MustType(name string) Type {
	t, err := ParseType(name)
	if err != nil {
		panic(err)
	}
	return t
}

// Arg builds a non-indexed parameter from a canonical type name.
func Arg(name string) Param {
	return Param{Type: MustType(name)}
}

// Indexed builds an indexed parameter from a canonical type name.
func Indexed(name string) Param {
	return Param{Type: MustType(name), Indexed: true}
}
