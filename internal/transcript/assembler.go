// Package transcript merges per-chunk transcription results into the single
// document handed to report generation.
package transcript

import (
	"fmt"
	"strings"
)

// Assemble combines per-chunk transcripts in chunk order. A single part is
// returned unchanged; multiple parts get a visible header before each one so
// chunk boundaries stay auditable in the final document. Callers that
// transcribe chunks concurrently must place each result at its chunk's index
// before assembling; this function never reorders.
func Assemble(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	if len(parts) == 1 {
		return parts[0]
	}

	var b strings.Builder
	for i, part := range parts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "--- Part %d ---\n", i+1)
		b.WriteString(part)
	}
	return b.String()
}
