package ocr

import "testing"

func TestTextFromMediaEmptyInput(t *testing.T) {
	if got := TextFromMedia(nil, "image/jpeg"); got != "" {
		t.Errorf("expected empty string for empty media, got %q", got)
	}
}

func TestAmountFromTextDollarLed(t *testing.T) {
	v, ok := amountFromText("Pagaste $ 15.000,00 a Juan")
	if !ok || v != 15000 {
		t.Errorf("amountFromText = (%v, %v), want (15000, true)", v, ok)
	}
}

func TestAmountFromTextGroupedFallback(t *testing.T) {
	v, ok := amountFromText("Total 7.500 transferido")
	if !ok || v != 7500 {
		t.Errorf("amountFromText = (%v, %v), want (7500, true)", v, ok)
	}
}

func TestAmountFromTextTripleZeroEscalation(t *testing.T) {
	v, ok := amountFromText("Transferencia $150 .000")
	if !ok || v != 150000 {
		t.Errorf("amountFromText = (%v, %v), want (150000, true)", v, ok)
	}
}

func TestAmountFromTextNoMatch(t *testing.T) {
	if _, ok := amountFromText("hola como estas"); ok {
		t.Error("expected no amount match")
	}
}

func TestEscalateOnlyBelowThousand(t *testing.T) {
	if got := escalate("algo .000 mas", 5000); got != 5000 {
		t.Errorf("escalate should not touch values >= 1000, got %v", got)
	}
}
