package extract

import (
	"regexp"
	"strings"
)

// Phone patterns are tried in order: international with a leading plus,
// the regional trunk-8 form, then a bare run of digits. Only the first
// match in the message is used.
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\+\d[\d\s\-()]{9,}`),
	regexp.MustCompile(`8[\s\-()]*\d[\d\s\-()]{8,}`),
	regexp.MustCompile(`\d{10,}`),
}

var phoneJunk = regexp.MustCompile(`[\s\-()]`)

// Two consecutive capitalized words, Latin or Cyrillic. The message format
// asked of the user is "Фамилия Имя", so the first word is the last name.
var fullNamePattern = regexp.MustCompile(`\p{Lu}\p{Ll}+\s+\p{Lu}\p{Ll}+`)

var singleNamePattern = regexp.MustCompile(`\p{Lu}\p{Ll}+`)

type NameParts struct {
	First string
	Last  string
}

// Phone finds the first phone-like substring and normalizes it: separators
// stripped, the national trunk digit rewritten to the country code, the
// result always prefixed with +. Returns "" when nothing matches.
func Phone(text string) string {
	raw := rawPhone(text)
	if raw == "" {
		return ""
	}

	return normalizePhone(raw)
}

// Name looks for a surname/name pair; failing that, a lone capitalized
// word is taken as a first name. This is a heuristic, not a name parser:
// capitalized common words do get picked up, and the caller is expected
// to live with that.
func Name(text string) NameParts {
	if raw := rawPhone(text); raw != "" {
		text = strings.Replace(text, raw, "", 1)
	}

	if match := fullNamePattern.FindString(text); match != "" {
		parts := strings.Fields(match)
		return NameParts{First: parts[1], Last: parts[0]}
	}

	if match := singleNamePattern.FindString(text); match != "" {
		return NameParts{First: match}
	}

	return NameParts{}
}

func rawPhone(text string) string {
	for _, pattern := range phonePatterns {
		if match := pattern.FindString(text); match != "" {
			return match
		}
	}

	return ""
}

func normalizePhone(raw string) string {
	phone := phoneJunk.ReplaceAllString(raw, "")

	if strings.HasPrefix(phone, "8") && len(phone) == 11 {
		return "+7" + phone[1:]
	}

	if strings.HasPrefix(phone, "+") {
		return phone
	}

	return "+" + phone
}
