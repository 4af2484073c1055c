// Package ocr wraps the Tesseract binding and an image pre-processing
// pipeline to recover text (and, as a fallback, a headline amount) from
// receipt screenshots and PDFs.
package ocr

import (
	"bytes"
	"image"
	"image/png"
	"log"
	"regexp"

	"github.com/disintegration/imaging"
	"github.com/ledongthuc/pdf"
	"github.com/otiai10/gosseract/v2"

	"github.com/argenlinea/receptor/internal/numeric"
)

const (
	maxWidth      = 1600
	textWhitelist = "0-9A-Za-z$.,:-/ "
)

var (
	dollarLed   = regexp.MustCompile(`\$\s*([0-9][0-9.,\s\x{00A0}\x{202F}]*)`)
	groupedLong = regexp.MustCompile(`[1-9]\d{0,2}(?:[.,\s]\d{3})+(?:[.,]\d{1,2})?|[1-9]\d{3,}(?:[.,]\d{1,2})?`)
	tripleZero  = regexp.MustCompile(`\.(000|00[oO]|0[oO]0|[oO]o0)`)
)

// TextFromMedia recovers text from a receipt attachment. Errors never
// propagate: on any failure it logs and returns "".
func TextFromMedia(data []byte, mimetype string) string {
	if len(data) == 0 {
		return ""
	}

	if mimetype == "application/pdf" {
		return textFromPDF(data)
	}

	prepped, err := preprocessForOCR(data)
	if err != nil {
		log.Printf("WARNING: ocr: pre-process failed, using original bytes: %v", err)
		prepped = data
	}

	text, err := runTesseract(prepped, textWhitelist, "spa+eng", 0)
	if err != nil {
		log.Printf("WARNING: ocr: recognition failed: %v", err)
		return ""
	}
	return text
}

func textFromPDF(data []byte) string {
	reader := bytes.NewReader(data)
	r, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		log.Printf("WARNING: ocr: pdf open failed: %v", err)
		return ""
	}

	var buf bytes.Buffer
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}
	return buf.String()
}

// preprocessForOCR applies the EXIF-orient/resize/grayscale/normalize
// pipeline and re-encodes as PNG, the format gosseract reads most reliably.
func preprocessForOCR(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	img = resizeToMaxWidth(img, maxWidth)
	img = imaging.Grayscale(img)
	img = imaging.AdjustContrast(img, 10)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func resizeToMaxWidth(img image.Image, width int) image.Image {
	if img.Bounds().Dx() <= width {
		return img
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}

// runTesseract spins up a gosseract client for a single recognition call.
// A page-segmentation mode of 0 uses the engine default.
func runTesseract(data []byte, whitelist, langs string, psm int) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(langs); err != nil {
		return "", err
	}
	if err := client.SetWhitelist(whitelist); err != nil {
		return "", err
	}
	if psm > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(psm)); err != nil {
			return "", err
		}
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", err
	}
	return client.Text()
}

// amountFromText tries the dollar-led pattern first, then the
// grouped-or-long fallback, applying the numeric normalizer and the
// triple-zero escalation hint.
func amountFromText(text string) (float64, bool) {
	if m := dollarLed.FindStringSubmatch(text); len(m) > 1 {
		if v, ok := numeric.Normalize(m[1]); ok {
			return escalate(text, v), true
		}
	}
	if m := groupedLong.FindString(text); m != "" {
		if v, ok := numeric.Normalize(m); ok {
			return escalate(text, v), true
		}
	}
	return 0, false
}

func escalate(text string, v float64) float64 {
	if v > 0 && v < 1000 && tripleZero.MatchString(text) {
		return v * 1000
	}
	return v
}
