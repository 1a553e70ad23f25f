package catalog

import "strings"

// Search returns topics whose title, description, key points or cheatsheet
// contain query, case-insensitively. An empty query matches nothing.
func (c *Catalog) Search(query string) []Topic {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var out []Topic
	for _, t := range c.topics {
		if topicMatches(t, q) {
			out = append(out, t)
		}
	}
	return out
}

func topicMatches(t Topic, q string) bool {
	if strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	for _, p := range t.KeyPoints {
		if strings.Contains(strings.ToLower(p), q) {
			return true
		}
	}
	for _, item := range t.Cheatsheet {
		if strings.Contains(strings.ToLower(item), q) {
			return true
		}
	}
	return false
}
