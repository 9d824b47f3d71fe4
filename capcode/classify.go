package capcode

import "unicode"

// Word-glue characters. They do not end a word.
const (
	Apostrophe       = '\''
	RightSingleQuote = '’'
)

// IsUpper reports whether r is an uppercase letter that capcode folds.
// Only letters with a reversible simple case mapping qualify; an uppercase
// letter whose lowercase form does not map back (U+0130, U+1E9E) or that has
// no lowercase form at all is treated as caseless and copied verbatim.
func IsUpper(r rune) bool {
	if !unicode.IsUpper(r) {
		return false
	}
	l := unicode.ToLower(r)
	return l != r && unicode.ToUpper(l) == r
}

// IsLower reports whether r is a lowercase letter.
func IsLower(r rune) bool {
	return unicode.IsLower(r)
}

// IsAlpha reports whether r is a letter.
func IsAlpha(r rune) bool {
	return unicode.IsLetter(r)
}

// IsDigit reports whether r is a decimal digit.
func IsDigit(r rune) bool {
	return unicode.IsDigit(r)
}

// IsWordGlue reports whether r is an apostrophe variant.
func IsWordGlue(r rune) bool {
	return r == Apostrophe || r == RightSingleQuote
}

// IsModifier reports whether r is a combining mark (category M).
func IsModifier(r rune) bool {
	return unicode.Is(unicode.M, r)
}

// keepsWord reports whether a non-letter r continues the current word.
func keepsWord(r rune) bool {
	return IsDigit(r) || IsWordGlue(r) || IsModifier(r)
}
