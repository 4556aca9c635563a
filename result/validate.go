package result

import "github.com/jonwraymond/snippetexec/frame"

// DefaultMaxOutputCells is the output ceiling applied when none is set.
const DefaultMaxOutputCells = 1_000_000

// Validate measures tables (rows times columns) and series (length)
// against maxCells. Other values are not measured. A non-positive
// maxCells disables the check.
func Validate(v any, maxCells int) error {
	if maxCells <= 0 {
		return nil
	}
	var measured int
	switch x := v.(type) {
	case *frame.Table:
		if x == nil {
			return nil
		}
		measured = x.Cells()
	case *frame.Series:
		if x == nil {
			return nil
		}
		measured = x.Len()
	default:
		return nil
	}
	if measured > maxCells {
		return &OutputTooLargeError{Measured: measured, Ceiling: maxCells}
	}
	return nil
}
