package inspect

// ruleEnd finds the 1-based line number on which the rule starting at
// startIdx (0-based) closes. Brace depth is counted across whole lines
// from the head line onward; the rule ends on the first line after which
// the depth returns to zero, an opening brace having been seen.
//
// The count is blind to braces inside string literals and comments.
// Upgrading this to a lexer-aware scan only requires changing this one
// function. Unbalanced input ends at the last line of the source.
func ruleEnd(lines []string, startIdx int) int {
	depth := 0
	foundOpen := false

	for i := startIdx; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case '{':
				depth++
				foundOpen = true
			case '}':
				depth--
			}
		}

		if foundOpen && depth == 0 {
			return i + 1
		}
	}

	return len(lines)
}
