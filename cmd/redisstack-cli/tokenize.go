package main

import (
	"errors"
	"strings"
	"unicode"
)

var errUnbalancedQuotes = errors.New("unbalanced quotes")

// tokenize splits a command line on spaces. Double quotes group words and a
// backslash escapes the next character.
func tokenize(input string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	inQuotes := false
	escaped := false
	quoted := false

	for _, r := range input {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}

		switch {
		case r == '\\':
			escaped = true
		case r == '"':
			inQuotes = !inQuotes
			quoted = true
		case unicode.IsSpace(r) && !inQuotes:
			if current.Len() > 0 || quoted {
				tokens = append(tokens, current.String())
				current.Reset()
				quoted = false
			}
		default:
			current.WriteRune(r)
		}
	}

	if inQuotes {
		return nil, errUnbalancedQuotes
	}
	if current.Len() > 0 || quoted {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}
