package codec

import (
	"bytes"
	"reflect"
	"testing"
)

func TestRoundTrip_IntegersStaySigned(t *testing.T) {
	data, err := Marshal(map[string]any{"n": int64(42)})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var out any
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	m, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("decoded type = %T, want map[string]any", out)
	}
	if n, ok := m["n"].(int64); !ok || n != 42 {
		t.Errorf("m[\"n\"] = %#v, want int64(42)", m["n"])
	}
}

func TestRoundTrip_OrderedMapKeepsOrder(t *testing.T) {
	inner := OrderedMap{Keys: []string{"y", "x"}, Values: []any{"b", "a"}}
	in := map[string]any{"m": OrderedMap{Keys: []string{"z", "a"}, Values: []any{int64(1), []any{inner}}}}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var out map[string]any
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	om, ok := out["m"].(OrderedMap)
	if !ok {
		t.Fatalf("out[m] = %T, want OrderedMap", out["m"])
	}
	if !reflect.DeepEqual(om.Keys, []string{"z", "a"}) {
		t.Errorf("Keys = %v, want [z a]", om.Keys)
	}
	nested, _ := om.Values[1].([]any)
	if len(nested) != 1 || !reflect.DeepEqual(nested[0], inner) {
		t.Errorf("Values[1] = %#v, want nested ordered map", om.Values[1])
	}
}

func TestStream(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, v := range []string{"first", "second"} {
		if err := enc.Encode(v); err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
	}

	dec := NewDecoder(&buf)
	for _, want := range []string{"first", "second"} {
		var got string
		if err := dec.Decode(&got); err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if got != want {
			t.Errorf("Decode() = %q, want %q", got, want)
		}
	}
}
