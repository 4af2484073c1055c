// Package receipts implements the end-to-end receipt pipeline: OCR the
// media, score the combined text, run the ordered amount-normalization
// rules, accept or reject, and on acceptance drive the persistence and
// advertising side effects.
package receipts

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/argenlinea/receptor/internal/adevents"
	"github.com/argenlinea/receptor/internal/database"
	"github.com/argenlinea/receptor/internal/fields"
	"github.com/argenlinea/receptor/internal/models"
	"github.com/argenlinea/receptor/internal/numeric"
	"github.com/argenlinea/receptor/internal/objectstore"
	"github.com/argenlinea/receptor/internal/ocr"
	"github.com/argenlinea/receptor/internal/scorer"
)

const (
	acceptScoreThreshold = 4
	escalatedScore       = 10
	mpOverflowCap        = 10_000_000
)

var (
	badCtx = []string{
		"cuit", "cuil", "cvu", "cbu", "coelsa", "operación", "transacción",
		"identificación", "código", "número", "referencia",
	}
	keyNear = []string{
		"comprobante", "transferencia", "motivo", "mercado pago", "pagaste",
		"enviaste", "de", "para", "monto", "importe", "total",
	}

	groupedRe    = regexp.MustCompile(`[1-9]\d{0,2}(?:[.,\s]\d{3})+(?:[.,]\d{1,2})?`)
	digits22Full = regexp.MustCompile(`^\d{22}$`)

	nonDigit = regexp.MustCompile(`\D`)
)

// MPForceX1000 controls the Mercado-Pago ×1000 rules; default on, flagged
// off via the MP_FORCE_X1000 environment variable.
var MPForceX1000 = true

// Message is the minimal inbound message shape the pipeline needs.
type Message struct {
	ProjectID   string
	LineID      string
	Contact     string // WhatsApp phone in E.164-ish digits
	Caption     string
	MediaBytes  []byte
	MimeType    string
	PageID      string
	Slug        string
}

// Deps bundles the pipeline's collaborators so tests can substitute fakes.
type Deps struct {
	Store  *objectstore.Store
	Events *adevents.Emitter
}

// Run executes the full pipeline for one inbound media message. It never
// returns an error to the caller: every step is best-effort past the accept
// gate, per the persistence-transient error policy.
func Run(ctx context.Context, deps Deps, msg Message) {
	if msg.ProjectID == "" {
		log.Printf("WARNING: receipts: missing project_id, dropping message")
		return
	}

	ocrText := ocr.TextFromMedia(msg.MediaBytes, msg.MimeType)
	combined := msg.Caption + "\n" + ocrText

	result := scorer.Score(combined)
	score := result.Score
	amount := 0.0
	if result.HasAmount {
		amount = result.Amount
	}

	amount, score = applySafetyLargestGrouped(combined, amount, score)
	amount, score = applyTripleZeroHint(combined, amount, score)
	amount, score = applyMPx1000(result.Provider, amount, score)
	amount, score = applyVisualFallback(ctx, result.Provider, msg.MediaBytes, msg.MimeType, amount, score)
	amount, score = applyMPx1000(result.Provider, amount, score)

	if score < acceptScoreThreshold || amount <= 0 {
		log.Printf("DEBUG: receipts: rejected (score=%d amount=%v)", score, amount)
		return
	}

	mediaURL := uploadMedia(deps.Store, msg)

	fx := fields.Extract(combined)

	conversion := models.AnalyticsConversion{
		ProjectID:     msg.ProjectID,
		PageID:        msg.PageID,
		Slug:          msg.Slug,
		Contact:       msg.Contact,
		WaPhone:       msg.Contact,
		FileURL:       mediaURL,
		FileMime:      msg.MimeType,
		Amount:        amount,
		Status:        models.ConversionStatusReceived,
		LineID:        msg.LineID,
		Concept:       fx.Concept,
		Reference:     fx.Reference,
		OperationNo:   fx.Transaction,
		OriginName:    fx.Origin.Name,
		OriginCUIT:    fx.Origin.CUIT,
		OriginAccount: fx.Origin.Account,
		OriginBank:    fx.Origin.Bank,
		DestName:      fx.Destination.Name,
		DestCUIT:      fx.Destination.CUIT,
		DestAccount:   fx.Destination.Account,
		DestBank:      fx.Destination.Bank,
	}
	if err := database.Insert(&conversion); err != nil {
		log.Printf("ERROR: receipts: insert conversion failed: %v", err)
	}

	agenda := models.Agenda{
		ProjectID:    msg.ProjectID,
		Contact:      msg.Contact,
		WaPhone:      msg.Contact,
		SourceSlug:   msg.Slug,
		SourcePageID: msg.PageID,
		Status:       models.AgendaStatusConversion,
		LastMessageAt: nowPlaceholder(),
	}
	if err := database.Upsert(&agenda, []string{"project_id", "contact"},
		[]string{"status", "wa_phone", "last_message_at", "updated_at"}); err != nil {
		log.Printf("ERROR: receipts: upsert agenda failed: %v", err)
	}

	if deps.Events != nil {
		deps.Events.EmitPurchase(ctx, adevents.Purchase{
			ExternalID: msg.Contact,
			Value:      amount,
			Currency:   "ARS",
		})
	}
}

// nowPlaceholder isolates the one wall-clock read the pipeline needs so
// callers that care about determinism in tests can see exactly where it is.
func nowPlaceholder() time.Time {
	return time.Now()
}

func uploadMedia(store *objectstore.Store, msg Message) string {
	if store == nil || len(msg.MediaBytes) == 0 {
		return ""
	}
	ext := extensionFor(msg.MimeType)
	path := fmt.Sprintf("%s/%s/%d%s", msg.ProjectID, digitsOnly(msg.Contact), time.Now().UnixMilli(), ext)
	url, err := store.Upload(path, msg.MediaBytes, msg.MimeType)
	if err != nil {
		log.Printf("ERROR: receipts: media upload failed: %v", err)
		return ""
	}
	return url
}

func extensionFor(mimetype string) string {
	switch mimetype {
	case "application/pdf":
		return ".pdf"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func digitsOnly(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// applySafetyLargestGrouped implements the first amount-normalization rule:
// when the chosen amount is missing or implausibly small, fall back to the
// largest grouped-thousands number found on a line that looks money-like.
func applySafetyLargestGrouped(text string, amount float64, score int) (float64, int) {
	if amount >= 1000 {
		return amount, score
	}

	lines := strings.Split(text, "\n")
	var best float64
	found := false

	for _, line := range lines {
		lower := strings.ToLower(line)
		if containsAny(lower, badCtx) {
			continue
		}
		if !strings.Contains(line, "$") && !containsAny(lower, keyNear) {
			continue
		}
		for _, raw := range groupedRe.FindAllString(line, -1) {
			digitsOnlyStr := nonDigit.ReplaceAllString(raw, "")
			if len(digitsOnlyStr) >= 15 || digits22Full.MatchString(digitsOnlyStr) {
				continue
			}
			v, ok := numeric.Normalize(raw)
			if !ok || v < 1000 || v > mpOverflowCap {
				continue
			}
			if !found || v > best {
				best, found = v, true
			}
		}
	}

	if !found {
		return amount, score
	}
	return best, max(score, escalatedScore)
}

// applyTripleZeroHint implements the second rule: a sub-1000 amount next to
// an OCR-corrupted run of zeros is escalated by 1000.
func applyTripleZeroHint(text string, amount float64, score int) (float64, int) {
	if amount <= 0 || amount >= 1000 {
		return amount, score
	}
	if !numeric.TripleZeroLike.MatchString(text) {
		return amount, score
	}
	return amount * 1000, max(score, escalatedScore)
}

// applyMPx1000 implements the Mercado-Pago ×1000 rule and its repeat pass.
func applyMPx1000(provider string, amount float64, score int) (float64, int) {
	if !MPForceX1000 || provider != "Mercado Pago" {
		return amount, score
	}
	if amount <= 0 || amount >= 1000 {
		return amount, score
	}
	scaled := amount * 1000
	if scaled > mpOverflowCap {
		return amount, score
	}
	return scaled, max(score, escalatedScore)
}

// applyVisualFallback implements the fourth rule: when no usable amount has
// emerged and the provider is Mercado Pago on a raster image, fall back to
// tiled visual OCR of the headline amount region.
func applyVisualFallback(ctx context.Context, provider string, mediaBytes []byte, mimetype string, amount float64, score int) (float64, int) {
	if amount > 0 || provider != "Mercado Pago" || isPDF(mimetype) {
		return amount, score
	}
	v, ok := ocr.VisualAmountFallback(mediaBytes, mimetype)
	if !ok || v <= 0 {
		return amount, score
	}
	return v, max(score, escalatedScore)
}

func isPDF(mimetype string) bool {
	return mimetype == "application/pdf"
}

func containsAny(lower string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
