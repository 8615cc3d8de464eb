package calendar

import (
	"regexp"
	"strings"
)

var (
	parenthetical = regexp.MustCompile(`\s*\([^()]*\)`)
	whitespace    = regexp.MustCompile(`\s+`)
	parashaPrefix = regexp.MustCompile(`(?i)^parashat\s+`)
)

// NormalizeTitle strips every parenthesized annotation, with the whitespace
// leading into it, and trims the result. Nested groups are removed from the
// inside out; an unmatched parenthesis is left alone.
//
//	"Purim (observed)"     -> "Purim"
//	"Pesach III (CH''M)"   -> "Pesach III"
//	"Simchat Torah"        -> "Simchat Torah"
func NormalizeTitle(title string) string {
	if title == "" {
		return ""
	}
	s := title
	for {
		next := parenthetical.ReplaceAllString(s, "")
		if next == s {
			break
		}
		s = next
	}
	return strings.TrimSpace(s)
}

// ParshaKey maps a parasha name to a stable lookup slug:
// "Achrei Mot–Kedoshim" -> "achrei_mot_kedoshim".
func ParshaKey(name string) string {
	s := strings.ToLower(name)
	s = strings.NewReplacer("’", "", "‘", "", "'", "").Replace(s)
	s = strings.NewReplacer("–", "-", "—", "-").Replace(s)
	s = whitespace.ReplaceAllString(s, "_")
	return strings.ReplaceAll(s, "-", "_")
}

// ParshaName drops the "Parashat " prefix the engine puts on weekly readings
// and collapses inner whitespace.
func ParshaName(title string) string {
	s := parashaPrefix.ReplaceAllString(strings.TrimSpace(title), "")
	return whitespace.ReplaceAllString(s, " ")
}
