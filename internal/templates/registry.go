// Package templates holds the provider fingerprint registry used to read a
// receipt's headline amount once its issuing bank or wallet is identified,
// falling back to a generic `$`-led scan when no provider-specific line
// pattern matches.
package templates

import (
	"regexp"
	"strings"

	"github.com/argenlinea/receptor/internal/numeric"
)

var (
	exoticSpace = regexp.MustCompile(`[\x{00A0}\x{202F}]`)
	collapseWS  = regexp.MustCompile(`[ \t]+`)
	sDollarFix  = regexp.MustCompile(`(?i)\bS\$|\bS\s0\b|\bARS\s`)
	dollarLed   = regexp.MustCompile(`\$\s*([0-9][0-9.,\s]*)`)

	cuitRe   = regexp.MustCompile(`\d{2}-?\d{8}-?\d`)
	cvuCbuRe = regexp.MustCompile(`\d{22}`)
	deRe     = regexp.MustCompile(`(?i)\bde\s*:?\s*([A-Za-zÁÉÍÓÚÑáéíóúñ ]{3,60})`)
	paraRe   = regexp.MustCompile(`(?i)\bpara\s*:?\s*([A-Za-zÁÉÍÓÚÑáéíóúñ ]{3,60})`)
)

// Entry is a single provider fingerprint: test identifies the provider
// anywhere in the text, amountLine narrows which lines are eligible to
// carry the headline amount.
type Entry struct {
	Provider   string
	Test       *regexp.Regexp
	AmountLine *regexp.Regexp
}

// Registry is the ordered provider list; order breaks ties, so noisier
// formats (Mercado Pago) must precede generic matchers.
var Registry = []Entry{
	{
		Provider:   "Mercado Pago",
		Test:       regexp.MustCompile(`(?i)mercado\s*pago|\bmp\b`),
		AmountLine: regexp.MustCompile(`(?i)pagaste|enviaste|transferiste|total`),
	},
	{
		Provider:   "Naranja X",
		Test:       regexp.MustCompile(`(?i)naranja\s*x`),
		AmountLine: regexp.MustCompile(`(?i)monto|total|pagaste`),
	},
	{
		Provider:   "Prex",
		Test:       regexp.MustCompile(`(?i)\bprex\b`),
		AmountLine: regexp.MustCompile(`(?i)monto|total`),
	},
	{
		Provider:   "Ualá",
		Test:       regexp.MustCompile(`(?i)ual[aá]`),
		AmountLine: regexp.MustCompile(`(?i)enviaste|monto|total`),
	},
	{
		Provider:   "Banco Nación",
		Test:       regexp.MustCompile(`(?i)banco\s*(de\s*la\s*)?naci[oó]n|\bbna\b`),
		AmountLine: regexp.MustCompile(`(?i)importe|monto|transferencia`),
	},
	{
		Provider:   "Santander",
		Test:       regexp.MustCompile(`(?i)santander`),
		AmountLine: regexp.MustCompile(`(?i)importe|monto|transferencia`),
	},
	{
		Provider:   "Galicia",
		Test:       regexp.MustCompile(`(?i)galicia`),
		AmountLine: regexp.MustCompile(`(?i)importe|monto|transferencia`),
	},
}

// Fields carries the best-effort identity fields the parser could lift
// alongside the amount.
type Fields struct {
	CUIT   string
	Alias  string
	From   string
	To     string
}

// Result is the parser's verdict: either a matched provider with a positive
// amount, or Matched=false when no entry in the registry could produce one.
type Result struct {
	Matched  bool
	Provider string
	Amount   float64
	Fields   Fields
}

// Parse normalizes text and walks the registry in order, returning the
// first entry that yields a positive amount.
func Parse(text string) Result {
	norm := normalize(text)
	lines := strings.Split(norm, "\n")

	for _, entry := range Registry {
		if !entry.Test.MatchString(norm) {
			continue
		}

		max, ok := maxAmountOnLines(lines, entry.AmountLine)
		if !ok {
			max, ok = maxDollarLed(norm)
		}
		if !ok || max <= 0 {
			continue
		}

		return Result{
			Matched:  true,
			Provider: entry.Provider,
			Amount:   max,
			Fields:   extractFields(norm),
		}
	}

	return Result{Matched: false}
}

// BestEffortAmount scans every provider's amount-line pattern, plus the
// generic $-led fallback, without requiring a provider Test match. It lets
// a caller compare a template-style reading against some other candidate
// even on text that didn't fingerprint to any registered provider.
func BestEffortAmount(text string) (float64, bool) {
	norm := normalize(text)
	lines := strings.Split(norm, "\n")

	var max float64
	found := false
	for _, entry := range Registry {
		if v, ok := maxAmountOnLines(lines, entry.AmountLine); ok && (!found || v > max) {
			max, found = v, true
		}
	}
	if v, ok := maxDollarLed(norm); ok && (!found || v > max) {
		max, found = v, true
	}
	return max, found
}

func normalize(text string) string {
	text = exoticSpace.ReplaceAllString(text, " ")
	text = sDollarFix.ReplaceAllString(text, "$")
	text = collapseWS.ReplaceAllString(text, " ")
	return text
}

func maxAmountOnLines(lines []string, amountLine *regexp.Regexp) (float64, bool) {
	var max float64
	found := false
	for _, line := range lines {
		if !amountLine.MatchString(line) && !strings.Contains(line, "$") {
			continue
		}
		for _, m := range dollarLed.FindAllStringSubmatch(line, -1) {
			v, ok := numeric.Normalize(m[1])
			if !ok {
				continue
			}
			if !found || v > max {
				max, found = v, true
			}
		}
	}
	return max, found
}

func maxDollarLed(text string) (float64, bool) {
	var max float64
	found := false
	for _, m := range dollarLed.FindAllStringSubmatch(text, -1) {
		v, ok := numeric.Normalize(m[1])
		if !ok {
			continue
		}
		if !found || v > max {
			max, found = v, true
		}
	}
	return max, found
}

func extractFields(text string) Fields {
	var f Fields

	if m := cuitRe.FindString(text); m != "" {
		f.CUIT = strings.ReplaceAll(m, "-", "")
	}
	if m := cvuCbuRe.FindString(text); m != "" {
		f.Alias = m
	}
	if m := deRe.FindStringSubmatch(text); len(m) > 1 {
		f.From = strings.TrimSpace(m[1])
	}
	if m := paraRe.FindStringSubmatch(text); len(m) > 1 {
		f.To = strings.TrimSpace(m[1])
	}

	return f
}
