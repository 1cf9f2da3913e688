package domain

// MaxContextChars caps the aggregated search context, counted in Unicode code points.
const MaxContextChars = 5000

// Fixed contexts used when no search material is fed to the answering stage.
const (
	// NoSearchContext is used when the decision policy rules search out.
	NoSearchContext = "No search needed, answer based on common sense."

	// FallbackContext is used when every search attempt failed.
	FallbackContext = "Multiple search failures, answer based on common sense."
)

// TruncateRunes returns the first n code points of s.
// Slicing by rune keeps multi-byte text (e.g. CJK) valid after the cut.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
