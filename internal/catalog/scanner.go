package catalog

import (
	"strconv"
	"strings"
	"unicode"
)

// The node source corpus is loosely structured TypeScript-ish text. The
// scanner below tokenizes the subset we need: brace-balanced blocks,
// top-level `key: value` pairs inside a block, and arrays of object
// literals. It is deliberately tolerant: a field that cannot be scanned is
// skipped, never an error, so extraction of an entry degrades per field.

type pair struct {
	key   string
	value string
}

// findBlock locates marker in src and returns the contents of the first
// brace-balanced `{ ... }` block that follows it, without the outer braces.
func findBlock(src, marker string) (string, bool) {
	idx := strings.Index(src, marker)
	if idx < 0 {
		return "", false
	}

	rest := src[idx+len(marker):]

	open := strings.IndexByte(rest, '{')
	if open < 0 {
		return "", false
	}

	body, _ := balancedSpan(rest[open:], '{', '}')
	if body == "" {
		return "", false
	}

	return body[1 : len(body)-1], true
}

// balancedSpan returns the prefix of src spanning from the opening delimiter
// at src[0] to its balanced closing delimiter, skipping string literals and
// comments. When the source is truncated it returns everything scanned so
// far, which keeps extraction usable on malformed files.
func balancedSpan(src string, open, close byte) (string, bool) {
	if len(src) == 0 || src[0] != open {
		return "", false
	}

	depth := 0
	i := 0

	for i < len(src) {
		c := src[i]

		switch c {
		case '\'', '"', '`':
			end := skipString(src, i)
			i = end
			continue
		case '/':
			if i+1 < len(src) && src[i+1] == '/' {
				nl := strings.IndexByte(src[i:], '\n')
				if nl < 0 {
					return src, false
				}
				i += nl
				continue
			}
			if i+1 < len(src) && src[i+1] == '*' {
				end := strings.Index(src[i+2:], "*/")
				if end < 0 {
					return src, false
				}
				i += end + 4
				continue
			}
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return src[:i+1], true
			}
		}

		i++
	}

	return src, false
}

// skipString returns the index just past the string literal starting at
// src[start].
func skipString(src string, start int) int {
	quote := src[start]

	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		}
	}

	return len(src)
}

// scanPairs splits block content into its top-level `key: value` pairs.
// Values keep their raw text (object and array values keep their brackets).
func scanPairs(block string) []pair {
	pairs := []pair{}
	i := 0

	for i < len(block) {
		// Key: a bare or quoted identifier followed by a colon.
		for i < len(block) && !isIdentStart(block[i]) && block[i] != '\'' && block[i] != '"' {
			if block[i] == '{' || block[i] == '[' {
				span, _ := balancedSpan(block[i:], block[i], matchingClose(block[i]))
				i += len(span)
				continue
			}
			i++
		}
		if i >= len(block) {
			break
		}

		keyStart := i
		if block[i] == '\'' || block[i] == '"' {
			i = skipString(block, i)
		} else {
			for i < len(block) && isIdentPart(block[i]) {
				i++
			}
		}
		key := unquote(strings.TrimSpace(block[keyStart:i]))

		for i < len(block) && (block[i] == ' ' || block[i] == '\t') {
			i++
		}
		if i >= len(block) || block[i] != ':' {
			continue
		}
		i++

		valueStart := i
		i = scanValueEnd(block, i)
		value := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(block[valueStart:i]), ","))

		if key != "" {
			pairs = append(pairs, pair{key: key, value: value})
		}
	}

	return pairs
}

// scanValueEnd advances past one value: a balanced object/array, a string
// literal, or bare text up to the next top-level comma or newline.
func scanValueEnd(block string, i int) int {
	for i < len(block) && (block[i] == ' ' || block[i] == '\t') {
		i++
	}
	if i >= len(block) {
		return i
	}

	switch block[i] {
	case '{', '[':
		span, _ := balancedSpan(block[i:], block[i], matchingClose(block[i]))
		return i + len(span)
	case '\'', '"', '`':
		return skipString(block, i)
	}

	for i < len(block) && block[i] != ',' && block[i] != '\n' {
		if block[i] == '(' {
			span, _ := balancedSpan(block[i:], '(', ')')
			i += len(span)
			continue
		}
		i++
	}

	return i
}

func matchingClose(open byte) byte {
	if open == '{' {
		return '}'
	}
	return ']'
}

// scanObjectArray parses a raw `[ {...}, {...} ]` value into the top-level
// pair sets of each object literal. Non-object elements are skipped.
func scanObjectArray(raw string) [][]pair {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "[") {
		return nil
	}

	body, _ := balancedSpan(raw, '[', ']')
	if len(body) < 2 {
		return nil
	}
	inner := body[1 : len(body)-1]

	objects := [][]pair{}
	i := 0

	for i < len(inner) {
		if inner[i] == '{' {
			span, ok := balancedSpan(inner[i:], '{', '}')
			if !ok && len(span) < 2 {
				break
			}
			objects = append(objects, scanPairs(span[1:len(span)-1]))
			i += len(span)
			continue
		}
		if inner[i] == '\'' || inner[i] == '"' || inner[i] == '`' {
			i = skipString(inner, i)
			continue
		}
		i++
	}

	return objects
}

// unquote strips one layer of single, double or backtick quotes.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '\'' || first == '"' || first == '`') {
			inner := s[1 : len(s)-1]
			inner = strings.ReplaceAll(inner, `\'`, `'`)
			inner = strings.ReplaceAll(inner, `\"`, `"`)
			return inner
		}
	}
	return s
}

// stringList parses a raw `['a', 'b']` value into its string elements.
func stringList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "[") {
		if v := unquote(raw); v != raw {
			return []string{v}
		}
		return nil
	}

	body, _ := balancedSpan(raw, '[', ']')
	if len(body) < 2 {
		return nil
	}

	items := []string{}
	inner := body[1 : len(body)-1]
	i := 0

	for i < len(inner) {
		c := inner[i]
		if c == '\'' || c == '"' || c == '`' {
			end := skipString(inner, i)
			items = append(items, unquote(inner[i:end]))
			i = end
			continue
		}
		i++
	}

	return items
}

// numberList parses a raw `[1, 1.1, 2]` value.
func numberList(raw string) []float64 {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")

	numbers := []float64{}
	for _, part := range strings.Split(raw, ",") {
		if n, err := strconv.ParseFloat(strings.TrimSpace(part), 64); err == nil {
			numbers = append(numbers, n)
		}
	}

	return numbers
}

func parseNumber(raw string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	return n, err == nil
}

func parseBool(raw string) (bool, bool) {
	switch strings.TrimSpace(raw) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || unicode.IsLetter(rune(c))
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || unicode.IsDigit(rune(c))
}
