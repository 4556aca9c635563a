package result

import (
	"errors"
	"strings"
	"testing"

	"github.com/jonwraymond/snippetexec/frame"
)

func TestValidate(t *testing.T) {
	big, _ := frame.Zeros(11, 10)
	small, _ := frame.Zeros(10, 10)
	long, _ := frame.NewSeries("s", make([]any, 101), nil)

	tests := []struct {
		name    string
		value   any
		max     int
		wantErr bool
	}{
		{name: "table at limit", value: small, max: 100},
		{name: "table over limit", value: big, max: 100, wantErr: true},
		{name: "series over limit", value: long, max: 100, wantErr: true},
		{name: "series under limit", value: long, max: 101},
		{name: "mapping not measured", value: map[string]any{"a": 1}, max: 0},
		{name: "list not measured", value: make([]any, 1000), max: 1},
		{name: "disabled", value: big, max: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.value, tt.max)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrOutputTooLarge) {
				t.Errorf("Validate() error = %v, want ErrOutputTooLarge", err)
			}
		})
	}
}

func TestValidate_MessageNamesSizes(t *testing.T) {
	big, _ := frame.Zeros(2000, 2000)
	err := Validate(big, 1_000_000)
	if err == nil {
		t.Fatal("Validate() error = nil, want error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "too large") || !strings.Contains(msg, "4000000") || !strings.Contains(msg, "1000000") {
		t.Errorf("Validate() message = %q", msg)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 0, "hello"},
		{"hello world", 5, "hello...(truncated)"},
		{"héllo", 2, "h...(truncated)"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
