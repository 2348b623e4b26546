// Package extract pulls the invoice number, order number and customer name out of
// OCR text recognized from a scanned NF-e (Brazilian electronic invoice).
//
// Every field is resolved by an ordered chain of strategies. A strategy either
// yields a value or reports that it found nothing; the first strategy with a
// value wins. OCR output is noisy, so "not found" is an ordinary result and never
// an error.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Number is an optional integer field. The zero value is absent.
type Number struct {
	Value int64
	Valid bool
}

// Some returns a present Number.
func Some(v int64) Number {
	return Number{Value: v, Valid: true}
}

// String renders the number without leading zeros, or "" when absent.
func (n Number) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatInt(n.Value, 10)
}

// MarshalYAML renders absent numbers as null.
func (n Number) MarshalYAML() (any, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Value, nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(n.Value, 10)), nil
}

// Fields is the immutable result of extracting one document's text.
type Fields struct {
	Invoice  Number `json:"invoice" yaml:"invoice"`
	Order    Number `json:"order" yaml:"order"`
	Customer string `json:"customer,omitempty" yaml:"customer,omitempty"`
}

// HasCustomer reports whether a customer name was found. Documents without one
// are always quarantined.
func (f Fields) HasCustomer() bool {
	return f.Customer != ""
}

// NumberStrategy looks for an integer in the text.
type NumberStrategy func(text string) (int64, bool)

// NameStrategy looks for a customer name in the text.
type NameStrategy func(text string) (string, bool)

// Strategy chains, tried in order.
var (
	InvoiceStrategies = []NumberStrategy{afterNE, afterNFe}
	OrderStrategies   = []NumberStrategy{afterPedido, afterNFe}
	NameStrategies    = []NameStrategy{
		nameAfter("DATA DA EMISSAO", 1),
		nameAfter("DATA DA EMISSDO", 1),
		nameAfter("DATA DA EMISSÃO", 2),
		nameAfter("DATA DA EMISSÃO", 1),
	}
)

// Extract runs every strategy chain over text.
func Extract(text string) Fields {
	text = norm.NFC.String(text)
	return Fields{
		Invoice:  firstNumber(text, InvoiceStrategies),
		Order:    firstNumber(text, OrderStrategies),
		Customer: strings.TrimSpace(Sanitize(firstName(text, NameStrategies))),
	}
}

func firstNumber(text string, chain []NumberStrategy) Number {
	for _, s := range chain {
		if v, ok := s(text); ok {
			return Some(v)
		}
	}
	return Number{}
}

func firstName(text string, chain []NameStrategy) string {
	for _, s := range chain {
		if v, ok := s(text); ok {
			return v
		}
	}
	return ""
}

// segment returns the i-th piece of s split on sep, so segment(s, sep, 1) is the
// text between the first and second occurrence of sep (or the end of s).
func segment(s, sep string, i int) (string, bool) {
	parts := strings.SplitN(s, sep, i+2)
	if len(parts) <= i {
		return "", false
	}
	return parts[i], true
}

// token returns the i-th whitespace-delimited field of s.
func token(s string, i int) (string, bool) {
	f := strings.Fields(s)
	if len(f) <= i {
		return "", false
	}
	return f[i], true
}

func parseInt(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// afterNE handles "Ne: 000003911": the token right after the marker.
func afterNE(text string) (int64, bool) {
	rest, ok := segment(strings.ToUpper(text), "NE:", 1)
	if !ok {
		return 0, false
	}
	tok, ok := token(rest, 0)
	if !ok {
		return 0, false
	}
	return parseInt(tok)
}

// afterNFe handles "NF-e N° 000003911": the second token after the marker.
func afterNFe(text string) (int64, bool) {
	rest, ok := segment(strings.ToUpper(text), "NF-E", 1)
	if !ok {
		return 0, false
	}
	tok, ok := token(rest, 1)
	if !ok {
		return 0, false
	}
	return parseInt(tok)
}

var digitRun = regexp.MustCompile(`[0-9]+`)

// afterPedido takes the first run of digits after the case-sensitive "Pedido".
func afterPedido(text string) (int64, bool) {
	rest, ok := segment(text, "Pedido", 1)
	if !ok {
		return 0, false
	}
	run := digitRun.FindString(rest)
	if run == "" {
		return 0, false
	}
	return parseInt(run)
}

var (
	digitDot = regexp.MustCompile(`[0-9]\.`)
	digit    = regexp.MustCompile(`[0-9]`)
)

// nameAfter reads the name that follows the date header. The name ends where the
// emission date starts: first at a "<digit>." and then at any digit.
func nameAfter(marker string, occurrence int) NameStrategy {
	return func(text string) (string, bool) {
		seg, ok := segment(strings.ToUpper(text), marker, occurrence)
		if !ok {
			return "", false
		}
		seg = cutAt(seg, digitDot)
		seg = cutAt(seg, digit)
		seg = strings.TrimSpace(seg)
		return seg, seg != ""
	}
}

func cutAt(s string, re *regexp.Regexp) string {
	if loc := re.FindStringIndex(s); loc != nil {
		return s[:loc[0]]
	}
	return s
}

// Sanitize drops every rune that is not a letter, digit, underscore or
// whitespace. It is idempotent.
func Sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' {
			return r
		}
		return -1
	}, name)
}
