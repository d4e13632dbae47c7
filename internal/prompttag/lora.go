// Package prompttag scans and writes the network tokens embedded in prompt
// text: <lora:name:strength> tags and embedding trigger tokens.
//
// The scanners are hand written and never backtrack: a scan costs at most the
// input length times the token length.
package prompttag

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const loraOpen = "<lora:"

// LoraHint is a LoRA reference found in prompt text.
type LoraHint struct {
	Name     string
	Strength float64
}

// FormatStrength renders a strength the way tags carry it: shortest decimal
// form, with ".0" kept on whole numbers.
func FormatStrength(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// LoraTag returns the prompt tag for a LoRA.
func LoraTag(name string, strength float64) string {
	return loraOpen + name + ":" + FormatStrength(strength) + ">"
}

// ExtractLoras removes every LoRA tag from text and returns the trimmed text
// with one hint per distinct name. Names are trimmed and NFC normalized. A
// name seen twice keeps its first position and takes the last strength.
func ExtractLoras(text string) (string, []LoraHint) {
	var (
		b     strings.Builder
		hints []LoraHint
		seen  = make(map[string]int)
		last  int
	)
	for i := 0; i < len(text); {
		j := strings.Index(text[i:], loraOpen)
		if j < 0 {
			break
		}
		start := i + j
		end, hint, ok := scanLora(text, start+len(loraOpen))
		if !ok {
			i = start + 1
			continue
		}
		b.WriteString(text[last:start])
		last, i = end, end

		if idx, dup := seen[hint.Name]; dup {
			hints[idx].Strength = hint.Strength
			continue
		}
		seen[hint.Name] = len(hints)
		hints = append(hints, hint)
	}
	if len(hints) == 0 {
		return strings.TrimSpace(text), nil
	}
	b.WriteString(text[last:])
	return strings.TrimSpace(b.String()), hints
}

// scanLora matches `NAME:\s*[+-]?(\d+|\d*\.\d+)\s*>` at p and returns the
// index just past the closing bracket.
func scanLora(text string, p int) (int, LoraHint, bool) {
	colon := strings.IndexByte(text[p:], ':')
	if colon <= 0 {
		return 0, LoraHint{}, false
	}
	rawName := text[p : p+colon]
	p += colon + 1

	p = skipSpace(text, p)
	numStart := p
	if p < len(text) && (text[p] == '+' || text[p] == '-') {
		p++
	}
	intDigits := countDigits(text, p)
	p += intDigits
	if p < len(text) && text[p] == '.' {
		frac := countDigits(text, p+1)
		if frac == 0 {
			return 0, LoraHint{}, false
		}
		p += 1 + frac
	} else if intDigits == 0 {
		return 0, LoraHint{}, false
	}
	number := text[numStart:p]

	p = skipSpace(text, p)
	if p >= len(text) || text[p] != '>' {
		return 0, LoraHint{}, false
	}

	strength, err := strconv.ParseFloat(number, 64)
	if err != nil {
		strength = 1.0
	}
	name := norm.NFC.String(strings.TrimSpace(rawName))
	if name == "" {
		return 0, LoraHint{}, false
	}
	return p + 1, LoraHint{Name: name, Strength: strength}, true
}

func skipSpace(s string, p int) int {
	for p < len(s) {
		r, size := utf8.DecodeRuneInString(s[p:])
		if !unicode.IsSpace(r) {
			break
		}
		p += size
	}
	return p
}

func countDigits(s string, p int) int {
	n := 0
	for p+n < len(s) && s[p+n] >= '0' && s[p+n] <= '9' {
		n++
	}
	return n
}
