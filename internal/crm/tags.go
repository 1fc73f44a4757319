package crm

import "strings"

// ParseTagNames splits a comma-separated tag list. Names are trimmed,
// blanks dropped and duplicates collapsed to their first occurrence.
// Names are case-sensitive: "VIP" and "vip" are two tags.
func ParseTagNames(raw string) []string {
	names := make([]string, 0)
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
