package tagged

import (
	"encoding/json"
	"testing"
	"time"
)

func TestBuiltinDecode(t *testing.T) {
	if got, err := String("hello").Decode(); err != nil || got != "hello" {
		t.Errorf("String decode = (%v, %v), want hello", got, err)
	}
	if got, err := Number(4.5).Decode(); err != nil || got != 4.5 {
		t.Errorf("Number decode = (%v, %v), want 4.5", got, err)
	}
	if got, err := Boolean(true).Decode(); err != nil || got != true {
		t.Errorf("Boolean decode = (%v, %v), want true", got, err)
	}

	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	got, err := Datetime(ts).Decode()
	if err != nil {
		t.Fatalf("Datetime decode: %v", err)
	}
	if !got.(time.Time).Equal(ts) {
		t.Errorf("Datetime decode = %v, want %v", got, ts)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	v := Number(42)
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var back Value
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Kind != KindNumber {
		t.Errorf("got kind %q, want %q", back.Kind, KindNumber)
	}
	got, err := back.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != 42.0 {
		t.Errorf("got %v, want 42", got)
	}
}

func TestUnknownKindRoundTripsOpaquely(t *testing.T) {
	in := []byte(`{"kind":"customer.duration","value":{"unit":"days","amount":3}}`)

	var v Value
	if err := json.Unmarshal(in, &v); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v.Kind != "customer.duration" {
		t.Errorf("got kind %q, want customer.duration", v.Kind)
	}

	// Decode must refuse, not guess.
	if _, err := v.Decode(); err == nil {
		t.Error("expected decode error for unregistered kind")
	}

	// The payload must survive re-encoding byte for byte.
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var a, b map[string]interface{}
	json.Unmarshal(in, &a)
	json.Unmarshal(out, &b)
	if a["kind"] != b["kind"] {
		t.Errorf("kind changed across round trip: %v vs %v", a["kind"], b["kind"])
	}
}

func TestMissingKindRejected(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`{"value":1}`), &v); err == nil {
		t.Error("expected error for missing kind")
	}
}

func TestRegisterCustomKind(t *testing.T) {
	type duration struct {
		Unit   string `json:"unit"`
		Amount int    `json:"amount"`
	}
	Register("test.duration", func(raw json.RawMessage) (interface{}, error) {
		var d duration
		err := json.Unmarshal(raw, &d)
		return d, err
	})

	var v Value
	if err := json.Unmarshal([]byte(`{"kind":"test.duration","value":{"unit":"days","amount":3}}`), &v); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	got, err := v.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	d := got.(duration)
	if d.Unit != "days" || d.Amount != 3 {
		t.Errorf("got %+v, want {days 3}", d)
	}

	found := false
	for _, k := range Kinds() {
		if k == "test.duration" {
			found = true
		}
	}
	if !found {
		t.Error("expected test.duration in Kinds()")
	}
}
