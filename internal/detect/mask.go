package detect

import (
	"sort"
	"strings"
)

// Mask replaces every secret span in excerpts. Its width is fixed so the
// excerpt does not leak the secret's length.
const Mask = "********"

// span is a byte range [start, end) within one line.
type span struct {
	start, end int
}

// maskSpans replaces the spans of line with Mask. Overlapping and adjacent
// spans are merged first.
func maskSpans(line string, spans []span) string {
	if len(spans) == 0 {
		return line
	}
	sorted := append([]span(nil), spans...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].start != sorted[j].start {
			return sorted[i].start < sorted[j].start
		}
		return sorted[i].end > sorted[j].end
	})
	merged := sorted[:1]
	for _, s := range sorted[1:] {
		last := &merged[len(merged)-1]
		if s.start <= last.end {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}

	var b strings.Builder
	prev := 0
	for _, s := range merged {
		if s.start < prev || s.end > len(line) || s.start >= s.end {
			continue
		}
		b.WriteString(line[prev:s.start])
		b.WriteString(Mask)
		prev = s.end
	}
	b.WriteString(line[prev:])
	return b.String()
}
