// Package scorer rates how likely a combined caption+OCR text is to be a
// genuine payment receipt, and resolves which amount candidate the rest of
// the pipeline should trust.
package scorer

import (
	"regexp"
	"strings"

	"github.com/argenlinea/receptor/internal/amount"
	"github.com/argenlinea/receptor/internal/templates"
)

var (
	groupedThousands = regexp.MustCompile(`[1-9]\d{0,2}(?:[.,\s]\d{3})+`)
	opCodeLabeled     = regexp.MustCompile(`(?i)(operaci[oó]n|transacci[oó]n|c[oó]digo|identificaci[oó]n)\s*:?\s*\S+`)

	bankNames = []string{
		"mercado pago", "ualá", "uala", "santander", "galicia", "bbva", "macro",
		"hsbc", "icbc", "nación", "nacion", "bna", "patagonia", "credicoop",
		"brubank", "naranja x", "prex",
	}
)

// Result is the scorer's verdict for one receipt candidate.
type Result struct {
	Score    int
	Amount   float64
	HasAmount bool
	Provider string
}

// Score evaluates text against the independent boolean signals and decides
// which amount candidate — template or finder — the caller should trust.
func Score(text string) Result {
	lower := strings.ToLower(text)
	score := 0

	if strings.Contains(lower, "comprobante de transferencia") {
		score += 2
	}
	if strings.Contains(lower, "enviaste") {
		score += 1
	}
	if strings.Contains(lower, "comprobante") {
		score += 2
	}
	if strings.Contains(lower, "transferencia") {
		score += 2
	}
	if strings.Contains(lower, "mercado pago") {
		score += 2
	}
	for _, kw := range []string{
		"pagaste", "recibo", "pago realizado", "número de operación",
		"numero de operación", "código de identificación", "codigo de identificacion",
	} {
		if strings.Contains(lower, kw) {
			score += 1
			break
		}
	}
	if containsBankName(lower) {
		score += 1
	}

	tr := templates.Parse(text)
	var resolvedAmount float64
	var hasAmount bool
	var provider string

	if tr.Matched {
		resolvedAmount = tr.Amount
		hasAmount = true
		provider = tr.Provider
	} else if v, ok := amount.Find(text); ok {
		resolvedAmount = v
		hasAmount = true
	}

	if hasAmount {
		score += 3
	}

	if opCodeLabeled.MatchString(text) {
		score += 1
	}
	for _, kw := range []string{"cuit", "cvu", "cbu", "beneficiario"} {
		if strings.Contains(lower, kw) {
			score += 1
			break
		}
	}
	if strings.Contains(text, "$") {
		score += 1
	}
	if groupedThousands.MatchString(text) && hasAmount && resolvedAmount >= 1000 {
		score += 2
	}
	if tr.Matched && hasAmount {
		score += 3
	}

	// when the chosen amount looks truncated, see if any provider's
	// amount-line pattern would still read a plausible value off the text,
	// even one that never fingerprinted to that provider.
	if hasAmount && resolvedAmount < 1000 {
		if v, ok := templates.BestEffortAmount(text); ok && v > resolvedAmount {
			resolvedAmount = v
		}
	}

	return Result{
		Score:     score,
		Amount:    resolvedAmount,
		HasAmount: hasAmount,
		Provider:  provider,
	}
}

func containsBankName(lower string) bool {
	for _, name := range bankNames {
		if strings.Contains(lower, name) {
			return true
		}
	}
	return false
}
