// Package email derives presentable names from email addresses. Directory
// records imported from the registrar sometimes arrive without a display
// name; notices still need a salutation.
package email

import (
	"strings"
	"unicode"
)

// DeriveName builds a display name from the local part of an email address.
// "almaz.tesfaye@example.edu" becomes "Almaz Tesfaye". Falls back to
// "Student" when nothing usable remains.
func DeriveName(address string) string {
	localPart := address
	if at := strings.IndexByte(address, '@'); at >= 0 {
		localPart = address[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "Student"
	}

	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
