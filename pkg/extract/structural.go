package extract

import (
	"strings"
	"unicode"
)

const (
	structuralZoneLines   = 3
	structuralMaxLineLen  = 160
	structuralRecurrence  = 0.6
	structuralMinRepeated = 2
)

// FilterStructuralLines drops running headers and footers: short lines in the
// top or bottom three lines of a page that recur on at least 60% of pages.
// Pages are separated by form feeds, as pdftotext emits them.
func FilterStructuralLines(raw string) string {
	pages := strings.Split(raw, "\f")
	if len(pages) > 0 && pages[len(pages)-1] == "" {
		pages = pages[:len(pages)-1]
	}

	threshold := int(float64(len(pages)) * structuralRecurrence)
	if threshold < structuralMinRepeated {
		threshold = structuralMinRepeated
	}

	freq := make(map[string]int)
	for _, page := range pages {
		var lines []string
		for _, l := range strings.Split(page, "\n") {
			if l != "" {
				lines = append(lines, l)
			}
		}
		if len(lines) == 0 {
			continue
		}
		top := min(structuralZoneLines, len(lines))
		for i := 0; i < top; i++ {
			countStructural(freq, lines[i])
		}
		if len(lines) > structuralZoneLines {
			for i := len(lines) - structuralZoneLines; i < len(lines); i++ {
				countStructural(freq, lines[i])
			}
		}
	}

	var sb strings.Builder
	for _, page := range pages {
		for _, line := range strings.Split(page, "\n") {
			if len(line) <= structuralMaxLineLen && freq[normalizeStructuralLine(line)] >= threshold {
				continue
			}
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func countStructural(freq map[string]int, line string) {
	if len(line) <= structuralMaxLineLen {
		freq[normalizeStructuralLine(line)]++
	}
}

// normalizeStructuralLine masks digits so "Página 3" and "Página 4" collide.
func normalizeStructuralLine(line string) string {
	var sb strings.Builder
	for _, r := range line {
		switch {
		case unicode.IsSpace(r):
			continue
		case unicode.IsDigit(r):
			sb.WriteByte('#')
		default:
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}
