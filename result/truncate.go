package result

// Truncate shortens s to at most n bytes, appending an ellipsis marker
// when it cuts. Cuts never split a UTF-8 sequence.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(truncated)"
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
