package prompttag

import (
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Candidate is a token that may appear in a prompt as an embedding trigger.
// Key is the canonical name hits are reported under; several tokens (a name
// and its alias) may share one key.
type Candidate struct {
	Token string
	Key   string
}

// EmbeddingHint is an embedding found in prompt text.
type EmbeddingHint struct {
	Key      string
	Token    string // the candidate token that matched
	Strength float64
}

// Weighted returns the minimal prompt encoding of token at strength: the bare
// token at 1.0, "(token:strength)" otherwise.
func Weighted(token string, strength float64) string {
	if strength == 1.0 {
		return token
	}
	return "(" + token + ":" + FormatStrength(strength) + ")"
}

// CollapseSpaces replaces every whitespace run with one space and trims.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RemoveEmbedding removes every occurrence of token from text. An occurrence
// is, in priority order at each position, "(token:[sign]digits)", "(token)" or a
// bare token not touching word characters. Matching ignores case. The
// strength of the first occurrence is returned, 1.0 when it carries none.
//
// Whitespace is left as is; see CollapseSpaces.
func RemoveEmbedding(text, token string) (string, float64, bool) {
	if token == "" {
		return text, 0, false
	}
	var (
		b        strings.Builder
		last     int
		found    bool
		strength = 1.0
	)
	for p := 0; p < len(text); {
		if end, s, ok := matchEmbedding(text, p, token); ok {
			if !found {
				found, strength = true, s
			}
			b.WriteString(text[last:p])
			last, p = end, end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[p:])
		p += size
	}
	if !found {
		return text, 0, false
	}
	b.WriteString(text[last:])
	return b.String(), strength, true
}

// ExtractEmbeddings removes every candidate found in text and returns the
// cleaned text with whitespace collapsed.
//
// Longer tokens are tried first so that a short name does not match inside a
// longer one. Once a key matched, its other tokens are not tried again. A
// short token that is a substring of a longer, unrelated token can still be
// misclassified when only the short one is present in the library.
func ExtractEmbeddings(text string, candidates []Candidate) (string, []EmbeddingHint) {
	if text == "" || len(candidates) == 0 {
		return CollapseSpaces(text), nil
	}

	ordered := slices.Clone(candidates)
	slices.SortStableFunc(ordered, func(a, b Candidate) int {
		return utf8.RuneCountInString(b.Token) - utf8.RuneCountInString(a.Token)
	})

	var hints []EmbeddingHint
	matched := make(map[string]bool)
	for _, c := range ordered {
		if c.Token == "" || matched[c.Key] {
			continue
		}
		cleaned, strength, ok := RemoveEmbedding(text, c.Token)
		if !ok {
			continue
		}
		text = cleaned
		matched[c.Key] = true
		hints = append(hints, EmbeddingHint{Key: c.Key, Token: c.Token, Strength: strength})
	}
	return CollapseSpaces(text), hints
}

// matchEmbedding tries the three token forms at p.
func matchEmbedding(text string, p int, token string) (int, float64, bool) {
	if text[p] == '(' {
		if e, ok := matchFold(text, p+1, token); ok && e < len(text) {
			switch text[e] {
			case ')':
				return e + 1, 1.0, true
			case ':':
				q := e + 1
				if q < len(text) && (text[q] == '+' || text[q] == '-') {
					q++
				}
				digits := q
				for q < len(text) && (text[q] == '.' || (text[q] >= '0' && text[q] <= '9')) {
					q++
				}
				if q > digits && q < len(text) && text[q] == ')' {
					s, err := strconv.ParseFloat(text[e+1:q], 64)
					if err != nil {
						s = 1.0
					}
					return q + 1, s, true
				}
			}
		}
	}

	if p > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:p]); isWordRune(r) {
			return 0, 0, false
		}
	}
	e, ok := matchFold(text, p, token)
	if !ok {
		return 0, 0, false
	}
	if e < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[e:]); isWordRune(r) {
			return 0, 0, false
		}
	}
	return e, 1.0, true
}

// matchFold matches pat at s[p:] under simple case folding and returns the
// index just past the match.
func matchFold(s string, p int, pat string) (int, bool) {
	for _, pr := range pat {
		if p >= len(s) {
			return 0, false
		}
		r, size := utf8.DecodeRuneInString(s[p:])
		if !equalFold(r, pr) {
			return 0, false
		}
		p += size
	}
	return p, true
}

func equalFold(a, b rune) bool {
	if a == b {
		return true
	}
	for f := unicode.SimpleFold(a); f != a; f = unicode.SimpleFold(f) {
		if f == b {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
