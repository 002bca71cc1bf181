package emulator

// IsAssignment reports whether the debugger expression writes memory.
// That is any = not escaped with \ and not a part of ==, !=, <= or >=.
// The check is a single left-to-right scan, expressions mixing
// comparisons and assignments are classified by the first bare =.
func IsAssignment(expr string) bool {
	var prev byte
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case c == '\\':
			// the escaped char is skipped
			i++
			prev = 0
			continue
		case c != '=':
		case i+1 < len(expr) && expr[i+1] == '=':
			i++
			c = 0
		case prev == '!' || prev == '<' || prev == '>' || prev == '=':
		default:
			return true
		}
		prev = c
	}
	return false
}
