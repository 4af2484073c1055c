// Package amount picks the single most likely money amount out of noisy,
// multiline OCR text recovered from an Argentine payment receipt.
package amount

import (
	"regexp"
	"sort"
	"strings"

	"github.com/argenlinea/receptor/internal/numeric"
)

const (
	minAmount = 50
	maxAmount = 10_000_000
)

var (
	exoticSpace = regexp.MustCompile(`[\x{00A0}\x{202F}]`)
	quoteUnify  = strings.NewReplacer("‘", "'", "’", "'", "“", "\"", "”", "\"")
	sDollarFix  = regexp.MustCompile(`(?i)\bS\$|\bS\s0\b|\bARS\s`)

	dollarLed = regexp.MustCompile(`\$\s*([0-9][0-9.,\s]*)`)

	groupedOrLong = regexp.MustCompile(`[1-9]\d{0,2}(?:[.,\s]\d{3})+(?:[.,]\d{1,2})?|[1-9]\d{3,}(?:[.,]\d{1,2})?`)

	yearLike = regexp.MustCompile(`^(19|20)\d{2}$`)

	badCtx = []string{
		"cuit", "cuil", "cvu", "cbu", "coelsa", "operación", "transacción",
		"identificación", "código", "número", "referencia",
	}

	keyNear = []string{
		"comprobante", "transferencia", "motivo", "mercado pago", "pagaste",
		"enviaste", "de", "para", "monto", "importe", "total",
	}
)

// candidate is an amount reading plus the priority that orders it against
// its competitors.
type candidate struct {
	value    float64
	priority int
}

// Find returns the single best amount in text, or ok=false when nothing in
// the plausible range was recovered.
func Find(text string) (float64, bool) {
	lines := preprocessLines(text)

	keyLines := make([]int, 0, len(lines))
	for i, line := range lines {
		if containsAny(line, keyNear) {
			keyLines = append(keyLines, i)
		}
	}

	var candidates []candidate

	for _, line := range lines {
		if containsAny(line, badCtx) {
			continue
		}
		for _, m := range dollarLed.FindAllStringSubmatch(line, -1) {
			if v, ok := numeric.Normalize(m[1]); ok {
				candidates = append(candidates, candidate{value: v, priority: 6})
			}
		}
	}

	if len(candidates) == 0 {
		for i, line := range lines {
			if containsAny(line, badCtx) {
				continue
			}
			for _, raw := range groupedOrLong.FindAllString(line, -1) {
				if yearLike.MatchString(raw) {
					continue
				}
				v, ok := numeric.Normalize(raw)
				if !ok {
					continue
				}
				dist := minDistance(i, keyLines)
				priority := 2
				if boost := 3 - dist; boost > 0 {
					priority += boost
				}
				candidates = append(candidates, candidate{value: v, priority: priority})
			}
		}
	}

	candidates = filterPlausible(candidates)
	if len(candidates) == 0 {
		return 0, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].priority != candidates[j].priority {
			return candidates[i].priority > candidates[j].priority
		}
		return candidates[i].value > candidates[j].value
	})

	return candidates[0].value, true
}

func preprocessLines(text string) []string {
	text = exoticSpace.ReplaceAllString(text, " ")
	text = quoteUnify.Replace(text)
	text = sDollarFix.ReplaceAllString(text, "$")

	rawLines := strings.Split(text, "\n")
	lines := make([]string, 0, len(rawLines))
	for _, l := range rawLines {
		lines = append(lines, strings.TrimSpace(l))
	}
	return lines
}

func containsAny(line string, needles []string) bool {
	lower := strings.ToLower(line)
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

func minDistance(from int, targets []int) int {
	if len(targets) == 0 {
		return 1 << 30
	}
	best := 1 << 30
	for _, t := range targets {
		d := from - t
		if d < 0 {
			d = -d
		}
		if d < best {
			best = d
		}
	}
	return best
}

func filterPlausible(in []candidate) []candidate {
	out := make([]candidate, 0, len(in))
	for _, c := range in {
		if c.value >= minAmount && c.value <= maxAmount {
			out = append(out, c)
		}
	}

	hasLarge := false
	for _, c := range out {
		if c.value >= 1000 {
			hasLarge = true
			break
		}
	}
	if !hasLarge {
		return out
	}

	filtered := make([]candidate, 0, len(out))
	for _, c := range out {
		if c.value >= 1000 {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
