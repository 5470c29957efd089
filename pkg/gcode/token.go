package gcode

// Word is one (letter, value) pair extracted from a command line.
type Word struct {
	Letter byte // Uppercase A-Z
	Value  float64
}

// scanWords extracts letter/number word pairs from a cleaned command line,
// left to right. Letters are case-insensitive; each letter occurrence
// consumes at most one signed decimal value. Letters without a following
// number and stray characters are skipped.
func scanWords(line string, dst []Word) []Word {
	i := 0
	n := len(line)
	for i < n {
		c := line[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c < 'A' || c > 'Z' {
			i++
			continue
		}
		i++

		// Skip whitespace between letter and value
		for i < n && (line[i] == ' ' || line[i] == '\t') {
			i++
		}

		value, width, ok := scanNumber(line[i:])
		if !ok {
			continue
		}
		i += width
		dst = append(dst, Word{Letter: c, Value: value})
	}
	return dst
}

// scanNumber parses a signed decimal at the start of s. It accepts an
// optional sign, digits, and at most one decimal point; exponents are not
// part of the dialect.
func scanNumber(s string) (value float64, width int, ok bool) {
	i := 0
	n := len(s)
	neg := false

	if i < n && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}

	intPart := 0.0
	digits := 0
	for i < n && s[i] >= '0' && s[i] <= '9' {
		intPart = intPart*10 + float64(s[i]-'0')
		digits++
		i++
	}

	frac := 0.0
	if i < n && s[i] == '.' {
		i++
		scale := 0.1
		for i < n && s[i] >= '0' && s[i] <= '9' {
			frac += float64(s[i]-'0') * scale
			scale /= 10
			digits++
			i++
		}
	}

	if digits == 0 {
		return 0, 0, false
	}

	value = intPart + frac
	if neg {
		value = -value
	}
	return value, i, true
}

// wordValue returns the value of the first word with the given letter,
// and whether it was present.
func wordValue(words []Word, letter byte) (float64, bool) {
	for _, w := range words {
		if w.Letter == letter {
			return w.Value, true
		}
	}
	return 0, false
}

// hasWord reports whether any word has the given letter.
func hasWord(words []Word, letter byte) bool {
	_, ok := wordValue(words, letter)
	return ok
}
