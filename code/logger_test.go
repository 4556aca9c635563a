package code

import "testing"

func TestLogger_Interface(t *testing.T) {
	t.Helper()
	var _ Logger = (*mockLogger)(nil)
}
