package ocr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/draw"
)

const (
	roiX0, roiX1 = 0.04, 0.70
	roiY0, roiY1 = 0.08, 0.48

	tileCols, tileRows = 4, 6
	tilePadX           = 0.08
	tilePadY           = 0.04
	minTileSide        = 16
	tileUpscaleWidth   = 600

	visualWhitelist = "0-9$., "
)

// VisualAmountFallback hunts for a headline amount in the Mercado Pago
// header region when the regular text pipeline found nothing usable. It is
// only ever invoked for that provider; every other caller should skip it.
func VisualAmountFallback(data []byte, mimetype string) (float64, bool) {
	if mimetype == "application/pdf" || len(data) == 0 {
		return 0, false
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return 0, false
	}

	roi := cropROI(img)
	tiles := tileImage(roi)

	var best float64
	found := false

	for _, tile := range tiles {
		upscaled := upscale(tile, tileUpscaleWidth)
		for _, variant := range preprocessVariants(upscaled) {
			for _, psm := range []int{6, 7} {
				text, err := recognizeVariant(variant, psm)
				if err != nil || text == "" {
					continue
				}
				if v, ok := amountFromText(text); ok && v > 0 {
					if !found || v > best {
						best, found = v, true
					}
				}
			}
		}
	}

	return best, found
}

func cropROI(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	x0 := b.Min.X + int(float64(w)*roiX0)
	x1 := b.Min.X + int(float64(w)*roiX1)
	y0 := b.Min.Y + int(float64(h)*roiY0)
	y1 := b.Min.Y + int(float64(h)*roiY1)

	return imaging.Crop(img, image.Rect(x0, y0, x1, y1))
}

func tileImage(img image.Image) []image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	padX := int(float64(w) * tilePadX)
	padY := int(float64(h) * tilePadY)

	tileW := w / tileCols
	tileH := h / tileRows

	var tiles []image.Image
	for row := 0; row < tileRows; row++ {
		for col := 0; col < tileCols; col++ {
			x0 := b.Min.X + col*tileW - padX
			y0 := b.Min.Y + row*tileH - padY
			x1 := x0 + tileW + 2*padX
			y1 := y0 + tileH + 2*padY

			x0, y0 = clampMin(x0, b.Min.X), clampMin(y0, b.Min.Y)
			x1, y1 = clampMax(x1, b.Max.X), clampMax(y1, b.Max.Y)

			if x1-x0 <= minTileSide || y1-y0 <= minTileSide {
				continue
			}
			tiles = append(tiles, imaging.Crop(img, image.Rect(x0, y0, x1, y1)))
		}
	}
	return tiles
}

func clampMin(v, min int) int {
	if v < min {
		return min
	}
	return v
}

func clampMax(v, max int) int {
	if v > max {
		return max
	}
	return v
}

func upscale(img image.Image, targetWidth int) image.Image {
	b := img.Bounds()
	if b.Dx() >= targetWidth || b.Dx() == 0 {
		return img
	}
	targetHeight := b.Dy() * targetWidth / b.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// preprocessVariants builds three fixed pre-process recipes: contrast plus
// brightness; blur plus contrast, brightness and threshold; and contrast
// plus brightness and gamma. The second recipe's blur is a Gaussian blur of
// sigma 1; no median filter is applied.
func preprocessVariants(img image.Image) []image.Image {
	a := imaging.AdjustGamma(imaging.AdjustContrast(imaging.Grayscale(img), 35), 1.0)
	a = imaging.AdjustBrightness(a, -18.0/255*100)

	b := imaging.Grayscale(img)
	b = imaging.Blur(b, 1)
	b = imaging.AdjustContrast(b, 50)
	b = imaging.AdjustBrightness(b, -20.0/255*100)
	b = threshold(b, 150)

	c := imaging.AdjustContrast(imaging.Grayscale(img), 80)
	c = imaging.AdjustBrightness(c, -25.0/255*100)
	c = imaging.AdjustGamma(c, 0.9)

	return []image.Image{a, b, c}
}

// threshold turns a grayscale image binary at cut, matching the OCR
// pre-process pipeline's expectation of clean black/white tiles.
func threshold(img image.Image, cut uint8) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		if c.R >= cut {
			return color.NRGBA{255, 255, 255, c.A}
		}
		return color.NRGBA{0, 0, 0, c.A}
	})
}

func recognizeVariant(img image.Image, psm int) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetWhitelist(visualWhitelist); err != nil {
		return "", err
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(psm)); err != nil {
		return "", err
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", err
	}
	return client.Text()
}
