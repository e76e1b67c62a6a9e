package normalize

import (
	"encoding/json"
	"strings"
	"unicode"
)

// DefaultDepartment is used when a row's department is absent or unparseable.
const DefaultDepartment = "Unknown"

// ParseDepartment cleans a vendor's raw department value. Some exports carry
// JSON-array strings like '["finance"]'; those are unwrapped to their first
// element. The result is title-cased; anything unusable becomes "Unknown".
func ParseDepartment(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "'")

	switch strings.ToLower(s) {
	case "", "null", "none", "nan":
		return DefaultDepartment
	}

	if strings.HasPrefix(s, "[") {
		var parts []string
		if err := json.Unmarshal([]byte(s), &parts); err != nil {
			return DefaultDepartment
		}
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				return titleCase(p)
			}
		}
		return DefaultDepartment
	}

	return titleCase(s)
}

// titleCase uppercases the first letter of each word and lowercases the rest.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
