package analysis

import "fmt"

// Character budgets for the reasoning request. The keep-the-tail policy is
// deliberate: the most recent messages carry the current risk signal, while
// the opening messages establish relationship context.
const (
	hardLimit = 15000
	softLimit = 8000
	headKeep  = 2000
	tailKeep  = 12000
)

// boundText keeps the request within its size budget. Above the hard limit
// it keeps the first headKeep and last tailKeep characters with a marker
// stating how many characters were omitted between them; above the soft
// limit it keeps only the tail.
func boundText(text string) string {
	n := len(text)
	switch {
	case n > hardLimit:
		omitted := n - headKeep - tailKeep
		return text[:headKeep] +
			fmt.Sprintf("\n\n[... %d characters omitted ...]\n\n", omitted) +
			text[n-tailKeep:]
	case n > softLimit:
		return "[... earlier messages truncated ...]\n\n" + text[n-softLimit:]
	default:
		return text
	}
}
