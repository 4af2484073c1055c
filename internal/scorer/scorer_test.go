package scorer

import "testing"

func TestScoreMercadoPagoScenario(t *testing.T) {
	text := "Mercado Pago\nPagaste\n$ 15.000,00\nReferencia: AB-12"
	r := Score(text)

	if r.Provider != "Mercado Pago" {
		t.Fatalf("provider = %q, want Mercado Pago", r.Provider)
	}
	if !r.HasAmount || r.Amount != 15000 {
		t.Fatalf("amount = %v (hasAmount=%v), want 15000", r.Amount, r.HasAmount)
	}
	if r.Score < 11 {
		t.Fatalf("score = %d, want >= 11", r.Score)
	}
}

func TestScoreGaliciaScenario(t *testing.T) {
	text := "Comprobante de transferencia\nBanco Galicia\nMonto $ 7.500"
	r := Score(text)

	if r.Provider != "Galicia" {
		t.Fatalf("provider = %q, want Galicia", r.Provider)
	}
	if !r.HasAmount || r.Amount != 7500 {
		t.Fatalf("amount = %v (hasAmount=%v), want 7500", r.Amount, r.HasAmount)
	}
	if r.Score < 9 {
		t.Fatalf("score = %d, want >= 9", r.Score)
	}
}

func TestScoreMonotonic(t *testing.T) {
	base := Score("hola")
	withSignal := Score("hola comprobante")
	if withSignal.Score < base.Score {
		t.Fatalf("adding a signal decreased score: %d -> %d", base.Score, withSignal.Score)
	}
}

func TestScoreKeywordBucketCountsOnce(t *testing.T) {
	withOne := Score("pagaste algo")
	withBoth := Score("pagaste algo, recibo")
	if withBoth.Score != withOne.Score {
		t.Fatalf("expected matching two keywords from the same signal bucket to still add only 1, got %d vs %d", withBoth.Score, withOne.Score)
	}
}

func TestScoreNoReceiptSignals(t *testing.T) {
	r := Score("hola como estas, nos vemos mañana")
	if r.HasAmount {
		t.Fatalf("did not expect an amount, got %v", r.Amount)
	}
	if r.Score != 0 {
		t.Fatalf("score = %d, want 0", r.Score)
	}
}
