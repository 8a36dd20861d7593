// Package tagged implements a tagged-variant value for entity payloads.
//
// The payload kind is carried as a stable string tag next to the raw value,
// and decoding goes through an explicit registry of named decoders. Unknown
// tags round-trip opaquely; they are never resolved to code.
package tagged

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// DecodeFunc turns the raw JSON of a value into its typed Go representation.
type DecodeFunc func(raw json.RawMessage) (interface{}, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]DecodeFunc{}
)

// Built-in kinds.
const (
	KindString   = "string"
	KindNumber   = "number"
	KindBoolean  = "boolean"
	KindDatetime = "datetime"
)

func init() {
	Register(KindString, func(raw json.RawMessage) (interface{}, error) {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	})
	Register(KindNumber, func(raw json.RawMessage) (interface{}, error) {
		var f float64
		err := json.Unmarshal(raw, &f)
		return f, err
	})
	Register(KindBoolean, func(raw json.RawMessage) (interface{}, error) {
		var b bool
		err := json.Unmarshal(raw, &b)
		return b, err
	})
	Register(KindDatetime, func(raw json.RawMessage) (interface{}, error) {
		var t time.Time
		err := json.Unmarshal(raw, &t)
		return t, err
	})
}

// Register adds or replaces the decoder for a kind. Registration is expected
// at startup, before values flow.
func Register(kind string, decode DecodeFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = decode
}

// Kinds returns the registered kinds, sorted.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Value is a kind-tagged payload. Raw holds the JSON encoding of the payload
// so that values of unregistered kinds survive a load/store cycle unchanged.
type Value struct {
	Kind string          `bson:"kind"`
	Raw  json.RawMessage `bson:"value"`
}

// String wraps a string payload.
func String(s string) *Value { return mustValue(KindString, s) }

// Number wraps a numeric payload.
func Number(f float64) *Value { return mustValue(KindNumber, f) }

// Boolean wraps a boolean payload.
func Boolean(b bool) *Value { return mustValue(KindBoolean, b) }

// Datetime wraps a timestamp payload.
func Datetime(t time.Time) *Value { return mustValue(KindDatetime, t) }

func mustValue(kind string, v interface{}) *Value {
	raw, err := json.Marshal(v)
	if err != nil {
		// Only reachable with unmarshalable built-in payloads.
		panic(err)
	}
	return &Value{Kind: kind, Raw: raw}
}

// Decode returns the typed payload using the registered decoder for the kind.
func (v *Value) Decode() (interface{}, error) {
	registryMu.RLock()
	decode, ok := registry[v.Kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("decoding tagged value: unknown kind %q", v.Kind)
	}
	typed, err := decode(v.Raw)
	if err != nil {
		return nil, fmt.Errorf("decoding tagged value of kind %q: %w", v.Kind, err)
	}
	return typed, nil
}

type envelope struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the value as {"kind": ..., "value": ...}.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Kind: v.Kind, Value: v.Raw})
}

// UnmarshalJSON decodes the envelope. The payload is kept raw; callers decode
// it on demand via Decode.
func (v *Value) UnmarshalJSON(data []byte) error {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return fmt.Errorf("unmarshalling tagged value: %w", err)
	}
	if e.Kind == "" {
		return fmt.Errorf("unmarshalling tagged value: missing kind")
	}
	v.Kind = e.Kind
	v.Raw = e.Value
	return nil
}
