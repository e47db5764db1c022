package heapdb

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// FieldType is one of the four primitive field encodings a Schema can use.
type FieldType int

const (
	// TypeInt is a 4-byte little-endian unsigned integer.
	TypeInt FieldType = iota

	// TypeShort is a 2-byte little-endian unsigned integer.
	TypeShort

	// TypeByte is a single raw byte.
	TypeByte

	// TypeVarStr is a 1-byte length prefix (0-255) followed by that many
	// UTF-8 bytes.
	TypeVarStr
)

// Schema is an ordered sequence of field types describing one record shape.
// By convention the first field is TypeInt and doubles as the record's key.
type Schema []FieldType

// Value holds one decoded field. Exactly one of the typed accessors is
// meaningful, selected by the field's position in the Schema that produced it.
type Value struct {
	Int    uint32
	Short  uint16
	Byte   byte
	VarStr string
}

// IntValue constructs a Value carrying an integer field.
func IntValue(v uint32) Value { return Value{Int: v} }

// ShortValue constructs a Value carrying a short field.
func ShortValue(v uint16) Value { return Value{Short: v} }

// ByteValue constructs a Value carrying a byte field.
func ByteValue(v byte) Value { return Value{Byte: v} }

// StringValue constructs a Value carrying a var_str field.
func StringValue(v string) Value { return Value{VarStr: v} }

// EncodeRecord concatenates the per-field encodings of values in schema
// order. len(values) must equal len(schema).
func EncodeRecord(values []Value, schema Schema) ([]byte, error) {
	if len(values) != len(schema) {
		return nil, newError(ErrSchemaMismatch, fmt.Sprintf(
			"record has %d fields, schema has %d", len(values), len(schema)), nil)
	}

	out := make([]byte, 0, len(values)*4)
	for i, ft := range schema {
		v := values[i]
		switch ft {
		case TypeInt:
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], v.Int)
			out = append(out, b[:]...)
		case TypeShort:
			var b [2]byte
			binary.LittleEndian.PutUint16(b[:], v.Short)
			out = append(out, b[:]...)
		case TypeByte:
			out = append(out, v.Byte)
		case TypeVarStr:
			if len(v.VarStr) > maxVarStrLen {
				return nil, newError(ErrSchemaMismatch, fmt.Sprintf(
					"var_str field exceeds %d bytes", maxVarStrLen), nil)
			}
			out = append(out, byte(len(v.VarStr)))
			out = append(out, v.VarStr...)
		default:
			return nil, newError(ErrSchemaMismatch, fmt.Sprintf("unknown field type %d", ft), nil)
		}
	}
	return out, nil
}

// DecodeRecord consumes b left to right per schema, advancing by each
// field's decoded width. Any shortfall or malformed field is a DecodeError.
func DecodeRecord(b []byte, schema Schema) ([]Value, error) {
	values := make([]Value, len(schema))
	pos := 0
	for i, ft := range schema {
		switch ft {
		case TypeInt:
			if pos+4 > len(b) {
				return nil, newError(ErrDecodeError, "buffer too short for int field", nil)
			}
			values[i] = Value{Int: binary.LittleEndian.Uint32(b[pos : pos+4])}
			pos += 4
		case TypeShort:
			if pos+2 > len(b) {
				return nil, newError(ErrDecodeError, "buffer too short for short field", nil)
			}
			values[i] = Value{Short: binary.LittleEndian.Uint16(b[pos : pos+2])}
			pos += 2
		case TypeByte:
			if pos+1 > len(b) {
				return nil, newError(ErrDecodeError, "buffer too short for byte field", nil)
			}
			values[i] = Value{Byte: b[pos]}
			pos += 1
		case TypeVarStr:
			if pos+1 > len(b) {
				return nil, newError(ErrDecodeError, "buffer too short for var_str length prefix", nil)
			}
			strLen := int(b[pos])
			pos++
			if pos+strLen > len(b) {
				return nil, newError(ErrDecodeError, "var_str length prefix exceeds remaining buffer", nil)
			}
			raw := b[pos : pos+strLen]
			if !utf8.Valid(raw) {
				return nil, newError(ErrDecodeError, "var_str field is not valid UTF-8", nil)
			}
			values[i] = Value{VarStr: string(raw)}
			pos += strLen
		default:
			return nil, newError(ErrDecodeError, fmt.Sprintf("unknown field type %d", ft), nil)
		}
	}
	return values, nil
}

// encodeKey encodes a bare 4-byte little-endian key, the format used to
// address records independent of their full schema.
func encodeKey(id uint32) []byte {
	var b [keySize]byte
	binary.LittleEndian.PutUint32(b[:], id)
	return b[:]
}

// recordKey extracts the first keySize bytes of an encoded record, which by
// convention is its primary integer id.
func recordKey(record []byte) []byte {
	if len(record) < keySize {
		return nil
	}
	return record[:keySize]
}
