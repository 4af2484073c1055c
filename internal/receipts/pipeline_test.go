package receipts

import (
	"context"
	"testing"
)

func TestApplySafetyLargestGroupedPicksMoneyLikeLine(t *testing.T) {
	text := "CUIT 20-12345678-9\nTransferencia enviaste $ 15.000,00\notros datos"
	amount, score := applySafetyLargestGrouped(text, 0, 0)
	if amount != 15000 {
		t.Errorf("expected 15000, got %v", amount)
	}
	if score < escalatedScore {
		t.Errorf("expected escalated score, got %d", score)
	}
}

func TestApplySafetyLargestGroupedLeavesPlausibleAmountAlone(t *testing.T) {
	amount, score := applySafetyLargestGrouped("anything", 5000, 7)
	if amount != 5000 || score != 7 {
		t.Errorf("expected amount/score untouched, got %v/%d", amount, score)
	}
}

func TestApplyTripleZeroHintEscalates(t *testing.T) {
	amount, score := applyTripleZeroHint("pagaste $ 5.0o0", 5, 0)
	if amount != 5000 {
		t.Errorf("expected 5000, got %v", amount)
	}
	if score < escalatedScore {
		t.Errorf("expected escalated score, got %d", score)
	}
}

func TestApplyTripleZeroHintNoOpWithoutPattern(t *testing.T) {
	amount, score := applyTripleZeroHint("pagaste $ 5", 5, 0)
	if amount != 5 || score != 0 {
		t.Errorf("expected untouched values, got %v/%d", amount, score)
	}
}

func TestApplyMPx1000ScalesMercadoPagoSmallAmount(t *testing.T) {
	amount, score := applyMPx1000("Mercado Pago", 5, 0)
	if amount != 5000 {
		t.Errorf("expected 5000, got %v", amount)
	}
	if score < escalatedScore {
		t.Errorf("expected escalated score, got %d", score)
	}
}

func TestApplyMPx1000SkipsOtherProviders(t *testing.T) {
	amount, score := applyMPx1000("Santander", 5, 0)
	if amount != 5 || score != 0 {
		t.Errorf("expected untouched values, got %v/%d", amount, score)
	}
}

func TestApplyMPx1000SkipsOverflow(t *testing.T) {
	amount, score := applyMPx1000("Mercado Pago", 9_999_999, 0)
	if amount != 9_999_999 {
		t.Errorf("expected overflow guard to keep pre-multiply value, got %v", amount)
	}
}

func TestRunRejectsLowScoreWithoutTouchingDeps(t *testing.T) {
	// No database connection is available in this test; Run must return
	// before reaching any persistence call when the combined text carries
	// no plausible receipt signal.
	Run(context.Background(), Deps{}, Message{
		ProjectID: "proj1",
		Contact:   "5491122334455",
		Caption:   "hola como estas",
	})
}

func TestRunDropsMessageWithoutProjectID(t *testing.T) {
	Run(context.Background(), Deps{}, Message{Caption: "irrelevant"})
}
