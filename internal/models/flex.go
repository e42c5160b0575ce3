package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
)

// FlexValue holds a value that upstream data may send either as a number or
// as free text (quantities like 24 or "24 (2 spare)", specs like 410 or "410W").
// The zero value is null.
type FlexValue struct {
	num   *decimal.Decimal
	text  string
	valid bool
}

// NumberValue wraps a decimal.
func NumberValue(d decimal.Decimal) FlexValue {
	return FlexValue{num: &d, valid: true}
}

// IntValue wraps an integer.
func IntValue(n int64) FlexValue {
	return NumberValue(decimal.NewFromInt(n))
}

// TextValue wraps free text.
func TextValue(s string) FlexValue {
	return FlexValue{text: s, valid: true}
}

// IsNull reports whether the value is absent or JSON null.
func (v FlexValue) IsNull() bool { return !v.valid }

// IsNumber reports whether the value was supplied as a number.
func (v FlexValue) IsNumber() bool { return v.valid && v.num != nil }

// Decimal returns the numeric value, if any.
func (v FlexValue) Decimal() (decimal.Decimal, bool) {
	if v.num == nil {
		return decimal.Zero, false
	}
	return *v.num, true
}

// String returns the canonical text form used for equality checks. Numbers
// drop trailing zeros (20.0 -> "20"), null is the empty string.
func (v FlexValue) String() string {
	switch {
	case !v.valid:
		return ""
	case v.num != nil:
		return v.num.String()
	default:
		return v.text
	}
}

// Equal compares two values by their canonical text form.
func (v FlexValue) Equal(o FlexValue) bool {
	return v.String() == o.String()
}

func (v FlexValue) MarshalJSON() ([]byte, error) {
	switch {
	case !v.valid:
		return []byte("null"), nil
	case v.num != nil:
		return []byte(v.num.String()), nil
	default:
		return json.Marshal(v.text)
	}
}

func (v *FlexValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*v = FlexValue{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextValue(s)
		return nil
	case 't', 'f':
		b, err := strconv.ParseBool(string(data))
		if err != nil {
			return fmt.Errorf("invalid value %s", data)
		}
		*v = TextValue(strconv.FormatBool(b))
		return nil
	case '{', '[':
		return fmt.Errorf("expected number or text, got %s", data)
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid number %s: %w", data, err)
	}
	*v = NumberValue(d)
	return nil
}

// EncodeMsgpack keeps numbers numeric in the compact diff encoding.
func (v FlexValue) EncodeMsgpack(enc *msgpack.Encoder) error {
	switch {
	case !v.valid:
		return enc.EncodeNil()
	case v.num != nil:
		if v.num.IsInteger() && v.num.Abs().LessThan(decimal.NewFromInt(1<<53)) {
			return enc.EncodeInt(v.num.IntPart())
		}
		f, _ := v.num.Float64()
		return enc.EncodeFloat64(f)
	default:
		return enc.EncodeString(v.text)
	}
}

func (v *FlexValue) DecodeMsgpack(dec *msgpack.Decoder) error {
	raw, err := dec.DecodeInterface()
	if err != nil {
		return err
	}
	*v = FlexValue{}
	switch x := raw.(type) {
	case nil:
	case string:
		*v = TextValue(x)
	case bool:
		*v = TextValue(strconv.FormatBool(x))
	case int8:
		*v = IntValue(int64(x))
	case int16:
		*v = IntValue(int64(x))
	case int32:
		*v = IntValue(int64(x))
	case int64:
		*v = IntValue(x)
	case uint8:
		*v = IntValue(int64(x))
	case uint16:
		*v = IntValue(int64(x))
	case uint32:
		*v = IntValue(int64(x))
	case uint64:
		d, err := decimal.NewFromString(strconv.FormatUint(x, 10))
		if err != nil {
			return err
		}
		*v = NumberValue(d)
	case float32:
		*v = NumberValue(decimal.NewFromFloat32(x))
	case float64:
		*v = NumberValue(decimal.NewFromFloat(x))
	default:
		return fmt.Errorf("unsupported msgpack value %T", raw)
	}
	return nil
}
