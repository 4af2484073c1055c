// Package fields carves origin/destination identity blocks and the amount
// out of a receipt's raw recognized text, combining the Template Parser
// with the Amount Finder as a fallback.
package fields

import (
	"regexp"
	"strings"

	"github.com/argenlinea/receptor/internal/amount"
	"github.com/argenlinea/receptor/internal/templates"
)

var (
	originKeywords = []string{"origen", "de", "desde", "emisor", "remitente"}
	destKeywords   = []string{"destino", "para", "a", "beneficiario", "receptor"}
	destBoundary   = []string{"destino", "para"}
	fileBoundary   = []string{"archivo", "adjunto", "comprobante"}

	nameLabeled  = regexp.MustCompile(`(?i)(nombre|titular|beneficiario)\s*:?\s*([A-Za-zÁÉÍÓÚÑáéíóúñ ]{3,80})`)
	nameFromTo   = regexp.MustCompile(`(?i)(de|para|a)\s*:?\s*([A-Za-zÁÉÍÓÚÑáéíóúñ ]{3,80})`)
	digitRun5    = regexp.MustCompile(`\d{5,}`)
	cuitRe       = regexp.MustCompile(`\d{2}-?\d{8}-?\d`)
	cvuCbuRe     = regexp.MustCompile(`\d{22}`)
	aliasLabeled = regexp.MustCompile(`(?i)(alias|cvu|cbu)\s*:?\s*([A-Za-z0-9._-]{6,})`)
	aliasFree    = regexp.MustCompile(`\b[A-Za-z0-9._-]{6,}\b`)
	digitRun10   = regexp.MustCompile(`\d{10,}`)
	bankFallback = regexp.MustCompile(`(?i)banco\s+([A-Za-zÁÉÍÓÚÑáéíóúñ]+)`)

	conceptoRe    = regexp.MustCompile(`(?i)concepto\s*:?\s*(.{1,120})`)
	operacionRe   = regexp.MustCompile(`(?i)(operaci[oó]n|transacci[oó]n|nro\s*op)\s*:?\s*(\S+)`)
	referenciaRe  = regexp.MustCompile(`(?i)(referencia|ref|c[oó]digo|cod)\s*:?\s*(\S+)`)

	bankNames = []string{
		"Mercado Pago", "Ualá", "Santander", "Galicia", "BBVA", "Macro",
		"HSBC", "ICBC", "Nación", "BNA", "Patagonia", "Credicoop",
		"Brubank", "Naranja X", "Prex",
	}
)

// Party is one side (origin or destination) of a receipt.
type Party struct {
	Name    string
	CUIT    string
	Account string
	Bank    string
}

// Receipt is the full set of fields a single receipt message yields.
type Receipt struct {
	Amount      float64
	HasAmount   bool
	Provider    string
	Origin      Party
	Destination Party
	Concept     string
	Reference   string
	Transaction string
}

// Extract runs the Template Parser first, falling back to the Amount
// Finder, then carves origin/destination blocks and the flat fields.
func Extract(text string) Receipt {
	r := Receipt{}

	tr := templates.Parse(text)
	if tr.Matched {
		r.Amount = tr.Amount
		r.HasAmount = true
		r.Provider = tr.Provider
	} else if v, ok := amount.Find(text); ok {
		r.Amount = v
		r.HasAmount = true
	}

	originBlock := carveSection(text, originKeywords, destBoundary)
	destBlock := carveSection(text, destKeywords, fileBoundary)

	r.Origin = extractParty(originBlock)
	r.Destination = extractParty(destBlock)

	applyGlobalFallbacks(text, &r)
	applyTemplateNameFallback(tr, &r)

	r.Concept = firstMatch(conceptoRe, text, 1)
	if len(r.Concept) > 120 {
		r.Concept = r.Concept[:120]
	}
	r.Transaction = firstMatch(operacionRe, text, 2)
	r.Reference = firstMatch(referenciaRe, text, 2)

	return r
}

func carveSection(text string, startKeywords, boundaryKeywords []string) string {
	lower := strings.ToLower(text)

	start := -1
	for _, kw := range startKeywords {
		if i := strings.Index(lower, kw); i != -1 && (start == -1 || i < start) {
			start = i
		}
	}
	if start == -1 {
		return ""
	}

	end := len(text)
	for _, kw := range boundaryKeywords {
		if i := strings.Index(lower[start+1:], kw); i != -1 {
			candidate := start + 1 + i
			if candidate < end {
				end = candidate
			}
		}
	}

	return text[start:end]
}

func extractParty(block string) Party {
	if block == "" {
		return Party{}
	}

	var p Party

	if m := nameLabeled.FindStringSubmatch(block); len(m) > 2 {
		p.Name = strings.TrimSpace(m[2])
	} else if m := nameFromTo.FindStringSubmatch(block); len(m) > 2 {
		p.Name = strings.TrimSpace(m[2])
	} else {
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if containsLetters(line) && !digitRun5.MatchString(line) {
				p.Name = line
				break
			}
		}
	}

	if m := cuitRe.FindString(block); m != "" {
		p.CUIT = strings.ReplaceAll(m, "-", "")
	}

	if m := cvuCbuRe.FindString(block); m != "" {
		p.Account = m
	} else if m := aliasLabeled.FindStringSubmatch(block); len(m) > 2 {
		p.Account = m[2]
	} else {
		for _, tok := range aliasFree.FindAllString(block, -1) {
			if !digitRun10.MatchString(tok) {
				p.Account = tok
				break
			}
		}
	}

	p.Bank = lookupBank(block)

	return p
}

func lookupBank(text string) string {
	lower := strings.ToLower(text)
	for _, name := range bankNames {
		if strings.Contains(lower, strings.ToLower(name)) {
			return name
		}
	}
	if m := bankFallback.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	return ""
}

func containsLetters(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

// applyGlobalFallbacks fills any gaps left by block extraction using
// globally collected CUITs/accounts/banks, per the extractor's fallback
// rules: first global CUIT/account goes to origin, last goes to
// destination, whichever is still empty.
func applyGlobalFallbacks(text string, r *Receipt) {
	allCUITs := cuitRe.FindAllString(text, -1)
	allAccounts := cvuCbuRe.FindAllString(text, -1)

	if r.Origin.CUIT == "" && len(allCUITs) > 0 {
		r.Origin.CUIT = strings.ReplaceAll(allCUITs[0], "-", "")
	}
	if r.Destination.CUIT == "" && len(allCUITs) > 0 {
		r.Destination.CUIT = strings.ReplaceAll(allCUITs[len(allCUITs)-1], "-", "")
	}

	if r.Origin.Account == "" && len(allAccounts) > 0 {
		r.Origin.Account = allAccounts[0]
	}
	if r.Destination.Account == "" && len(allAccounts) > 0 {
		r.Destination.Account = allAccounts[len(allAccounts)-1]
	}

	globalBank := lookupBank(text)
	if r.Origin.Bank == "" {
		r.Origin.Bank = globalBank
	}
	if r.Destination.Bank == "" {
		r.Destination.Bank = globalBank
	}
}

// applyTemplateNameFallback fills a still-empty origin/destination name from
// the provider template's own de/para reading, when one matched.
func applyTemplateNameFallback(tr templates.Result, r *Receipt) {
	if !tr.Matched {
		return
	}
	if r.Origin.Name == "" && tr.Fields.From != "" {
		r.Origin.Name = tr.Fields.From
	}
	if r.Destination.Name == "" && tr.Fields.To != "" {
		r.Destination.Name = tr.Fields.To
	}
}

func firstMatch(re *regexp.Regexp, text string, group int) string {
	m := re.FindStringSubmatch(text)
	if len(m) <= group {
		return ""
	}
	return strings.TrimSpace(m[group])
}
