// Package naming provides the shared name derivation and validation rules
// used when mapping Go identifiers onto schema names.
package naming

import "strings"

// Pluralize derives a plural form of a type name for default entity set
// naming. The rules are intentionally simple; types that need anything
// smarter can provide an explicit name.
func Pluralize(word string) string {
	if word == "" {
		return word
	}
	switch {
	case strings.HasSuffix(word, "y") && len(word) > 1 && !isVowel(rune(word[len(word)-2])):
		// "Category" becomes "Categories" but "Key" becomes "Keys".
		return word[:len(word)-1] + "ies"
	case strings.HasSuffix(word, "s") || strings.HasSuffix(word, "x") || strings.HasSuffix(word, "z") ||
		strings.HasSuffix(word, "ch") || strings.HasSuffix(word, "sh"):
		return word + "es"
	default:
		return word + "s"
	}
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
		return true
	default:
		return false
	}
}

// maxIdentifierLength is the schema limit on simple identifiers.
const maxIdentifierLength = 128

// IsSimpleIdentifier reports whether s is a valid schema simple
// identifier: a letter or underscore followed by letters, digits or
// underscores, at most 128 characters.
func IsSimpleIdentifier(s string) bool {
	if s == "" || len(s) > maxIdentifierLength {
		return false
	}
	for i, r := range s {
		if r == '_' || isLetter(r) {
			continue
		}
		if i > 0 && isDigit(r) {
			continue
		}
		return false
	}
	return true
}

// IsNamespace reports whether s is a valid schema namespace: one or more
// dot-separated simple identifiers.
func IsNamespace(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if !IsSimpleIdentifier(part) {
			return false
		}
	}
	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
