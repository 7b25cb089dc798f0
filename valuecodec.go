package awaserver

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// encodeScalarWire renders a scalar Value the way the IPC wire format
// represents a <Value> element: decimal integers/times, dotted floats,
// True/False booleans, base64 opaques and "O:I" object links. This is the
// same switch-on-type shape as the teacher's convertTLVValueToString
// (lwm2m_tlv.go), generalised from TLV bytes to the IPC's plain-text wire
// form.
func encodeScalarWire(v Value) (string, error) {
	switch v.kind {
	case ResourceTypeString:
		return v.str, nil
	case ResourceTypeInteger, ResourceTypeTime:
		return strconv.FormatInt(v.integer, 10), nil
	case ResourceTypeFloat:
		return strconv.FormatFloat(v.float, 'f', -1, 64), nil
	case ResourceTypeBoolean:
		if v.boolean {
			return "True", nil
		}
		return "False", nil
	case ResourceTypeOpaque:
		return base64.StdEncoding.EncodeToString(v.opaque), nil
	case ResourceTypeObjectLink:
		return v.link.String(), nil
	default:
		return "", newAPIError(ErrorKindTypeMismatch, "value has no scalar wire encoding: "+v.kind.String())
	}
}

// decodeScalarWire parses a wire-format scalar according to kind, the
// inverse of encodeScalarWire (and the teacher's convertStringToTLVValue).
func decodeScalarWire(kind ResourceType, raw string) (Value, error) {
	switch kind {
	case ResourceTypeString:
		return NewStringValue(raw), nil
	case ResourceTypeInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, newAPIError(ErrorKindTypeMismatch, "invalid integer: "+raw)
		}
		return NewIntegerValue(n), nil
	case ResourceTypeTime:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, newAPIError(ErrorKindTypeMismatch, "invalid time: "+raw)
		}
		return NewTimeValue(n), nil
	case ResourceTypeFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, newAPIError(ErrorKindTypeMismatch, "invalid float: "+raw)
		}
		return NewFloatValue(f), nil
	case ResourceTypeBoolean:
		switch raw {
		case "True", "true", "1":
			return NewBooleanValue(true), nil
		case "False", "false", "0":
			return NewBooleanValue(false), nil
		default:
			return Value{}, newAPIError(ErrorKindTypeMismatch, "invalid boolean: "+raw)
		}
	case ResourceTypeOpaque:
		b, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return Value{}, newAPIError(ErrorKindTypeMismatch, "invalid base64 opaque: "+raw)
		}
		return NewOpaqueValue(b), nil
	case ResourceTypeObjectLink:
		parts := strings.SplitN(raw, ":", 2)
		if len(parts) != 2 {
			return Value{}, newAPIError(ErrorKindTypeMismatch, "invalid object link: "+raw)
		}
		objectID, err1 := strconv.ParseUint(parts[0], 10, 32)
		instanceID, err2 := strconv.ParseUint(parts[1], 10, 32)
		if err1 != nil || err2 != nil {
			return Value{}, newAPIError(ErrorKindTypeMismatch, "invalid object link: "+raw)
		}
		return NewObjectLinkValue(ObjectLink{ObjectID: uint32(objectID), InstanceID: uint32(instanceID)}), nil
	default:
		return Value{}, newAPIError(ErrorKindTypeMismatch, fmt.Sprintf("no wire decoder for %s", kind))
	}
}
