package policy

import "strings"

// rankOf extracts the rank from a card code such as "As", "Td" or "10h".
// The last character is the suit; anything unparseable reports ok=false.
func rankOf(code string) (rank byte, ok bool) {
	code = strings.TrimSpace(code)
	if len(code) < 2 || len(code) > 3 {
		return 0, false
	}
	switch code[len(code)-1] {
	case 's', 'S', 'h', 'H', 'c', 'C', 'd', 'D':
	default:
		return 0, false
	}

	switch r := strings.ToUpper(code[:len(code)-1]); r {
	case "A":
		return 14, true
	case "K":
		return 13, true
	case "Q":
		return 12, true
	case "J":
		return 11, true
	case "T", "10":
		return 10, true
	case "2", "3", "4", "5", "6", "7", "8", "9":
		return r[0] - '0', true
	default:
		return 0, false
	}
}

// isPocketPair reports whether exactly two parseable hole cards share a rank.
func isPocketPair(hole []string) bool {
	if len(hole) != 2 {
		return false
	}
	a, okA := rankOf(hole[0])
	b, okB := rankOf(hole[1])
	return okA && okB && a == b
}
