// Package notelink extracts wiki-style references between notes.
package notelink

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Link is a single [[target]] reference found in a note body.
type Link struct {
	Target string // text between the brackets, trimmed
	Raw    string // the matched text including brackets
}

var wikiLinkPattern = regexp.MustCompile(`\[\[([^\[\]\n]+)\]\]`)

// Parse returns the wiki links of content in order of appearance.
func Parse(content string) []Link {
	matches := wikiLinkPattern.FindAllStringSubmatch(content, -1)
	links := make([]Link, 0, len(matches))
	for _, m := range matches {
		target := strings.TrimSpace(m[1])
		if target == "" {
			continue
		}
		links = append(links, Link{Target: target, Raw: m[0]})
	}
	return links
}

// Targets returns the distinct link targets of content.
func Targets(content string) map[string]bool {
	set := make(map[string]bool)
	for _, l := range Parse(content) {
		set[l.Target] = true
	}
	return set
}

// Aliases lists the targets that refer to filename: its id, the full file
// name and, when known, the note title.
func Aliases(filename, title string) []string {
	filename = filepath.Base(filename)
	aliases := []string{strings.TrimSuffix(filename, filepath.Ext(filename)), filename}
	if title = strings.TrimSpace(title); title != "" {
		aliases = append(aliases, title)
	}
	return aliases
}

// References reports whether content links to any of the aliases.
func References(content string, aliases []string) bool {
	targets := Targets(content)
	for _, a := range aliases {
		if targets[a] {
			return true
		}
	}
	return false
}
