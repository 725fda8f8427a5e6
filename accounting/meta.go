package accounting

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var ErrBadMeta = errors.New("malformed metadata")

type Kind uint8

const (
	KindString Kind = iota + 1
	KindNumber
	KindTime
)

// Value is a small variant carried in metadata and exported rows.
type Value struct {
	kind Kind
	str  string
	num  float64
	tm   time.Time
}

func StringValue(s string) Value { return Value{kind: KindString, str: s} }
func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f} }
func TimeValue(t time.Time) Value { return Value{kind: KindTime, tm: t} }
func (v Value) Kind() Kind { return v.kind }
func (v Value) IsZero() bool { return v.kind == 0 }
func (v Value) Number() (float64, bool) { return v.num, v.kind == KindNumber }
func (v Value) Time() (time.Time, bool) { return v.tm, v.kind == KindTime }

// Interface returns the underlying Go value (string, float64 or time.Time).
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindTime:
		return v.tm
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindTime:
		return v.tm.Format(time.RFC3339)
	}
	return ""
}

// Field is one key/value pair.
type Field struct {
	Key   string
	Value Value
}

// Meta is an ordered key/value bag attached to trades and lots. It is
// treated as immutable: With returns a new Meta.
type Meta []Field

// NewMeta builds a Meta from alternating keys and values. Values may be
// string, float64, int or time.Time.
func NewMeta(kv ...any) (Meta, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("odd number of key/value arguments: %w", ErrBadMeta)
	}
	var m Meta
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("key %v is %T: %w", kv[i], kv[i], ErrBadMeta)
		}
		var v Value
		switch x := kv[i+1].(type) {
		case string:
			v = StringValue(x)
		case float64:
			v = NumberValue(x)
		case int:
			v = NumberValue(float64(x))
		case time.Time:
			v = TimeValue(x)
		case Value:
			v = x
		default:
			return nil, fmt.Errorf("key %q has unsupported value %T: %w", key, x, ErrBadMeta)
		}
		m = m.With(key, v)
	}
	return m, m.Validate()
}

// With returns a copy of m with key set to v. An existing key keeps its
// position.
func (m Meta) With(key string, v Value) Meta {
	out := make(Meta, len(m), len(m)+1)
	copy(out, m)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = v
			return out
		}
	}
	return append(out, Field{Key: key, Value: v})
}

func (m Meta) Get(key string) (Value, bool) {
	for _, f := range m {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Clone returns an independent copy.
func (m Meta) Clone() Meta {
	if m == nil {
		return nil
	}
	out := make(Meta, len(m))
	copy(out, m)
	return out
}

// reservedKeys are the fixed columns that metadata is flattened next to in
// trade, lot and dividend rows. Gain rows prefix both sides with open_ and
// close_, so these also cover the gain's own prefixed columns. run_id is
// the column the SQLite journal adds to every table.
var reservedKeys = map[string]struct{}{
	"price":                  {},
	"size":                   {},
	"symbol":                 {},
	"date":                   {},
	"commission":             {},
	"commission_per_share":   {},
	"shares":                 {},
	"stock_acquisition_date": {},
	"div_per_share":          {},
	"amount":                 {},
	"ex_date":                {},
	"run_id":                 {},
}

// Validate rejects empty keys, duplicate keys, keys naming a fixed row
// column and unset values.
func (m Meta) Validate() error {
	seen := make(map[string]struct{}, len(m))
	for _, f := range m {
		if f.Key == "" {
			return fmt.Errorf("empty key: %w", ErrBadMeta)
		}
		if _, ok := reservedKeys[f.Key]; ok {
			return fmt.Errorf("key %q is a reserved column: %w", f.Key, ErrBadMeta)
		}
		if f.Value.IsZero() {
			return fmt.Errorf("key %q has no value: %w", f.Key, ErrBadMeta)
		}
		if _, dup := seen[f.Key]; dup {
			return fmt.Errorf("duplicate key %q: %w", f.Key, ErrBadMeta)
		}
		seen[f.Key] = struct{}{}
	}
	return nil
}

// Row is a flat, ordered record used for export.
type Row []Field

func (r Row) Get(key string) (Value, bool) {
	return Meta(r).Get(key)
}

// Keys lists the row's keys in order.
func (r Row) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// AppendMeta flattens m onto r with every key prefixed. Prefixing keeps
// open and close metadata apart once a gain is flattened.
func AppendMeta(r Row, prefix string, m Meta) Row {
	for _, f := range m {
		r = append(r, Field{Key: prefix + f.Key, Value: f.Value})
	}
	return r
}

func NumberField(key string, f float64) Field { return Field{Key: key, Value: NumberValue(f)} }
func StringField(key string, s string) Field { return Field{Key: key, Value: StringValue(s)} }
func TimeField(key string, t time.Time) Field { return Field{Key: key, Value: TimeValue(t)} }
