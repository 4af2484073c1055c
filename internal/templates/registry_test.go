package templates

import "testing"

func TestParseMercadoPago(t *testing.T) {
	text := "Mercado Pago\nPagaste\n$ 15.000,00\nReferencia: AB-12"
	r := Parse(text)
	if !r.Matched {
		t.Fatal("expected a match")
	}
	if r.Provider != "Mercado Pago" {
		t.Fatalf("provider = %q, want Mercado Pago", r.Provider)
	}
	if r.Amount != 15000 {
		t.Fatalf("amount = %v, want 15000", r.Amount)
	}
}

func TestParseGalicia(t *testing.T) {
	text := "Comprobante de transferencia\nBanco Galicia\nMonto $ 7.500"
	r := Parse(text)
	if !r.Matched {
		t.Fatal("expected a match")
	}
	if r.Provider != "Galicia" {
		t.Fatalf("provider = %q, want Galicia", r.Provider)
	}
	if r.Amount != 7500 {
		t.Fatalf("amount = %v, want 7500", r.Amount)
	}
}

func TestParseNoMatch(t *testing.T) {
	r := Parse("hola como estas")
	if r.Matched {
		t.Fatalf("expected no match, got %+v", r)
	}
}

func TestBestEffortAmountReadsAmountLineWithoutAProviderMatch(t *testing.T) {
	// "transferencia" appears in several providers' amount-line patterns but
	// the text never fingerprints to any of them, so Parse reports no match.
	text := "Transferencia\nImporte $ 3.400"
	if r := Parse(text); r.Matched {
		t.Fatalf("expected no provider match, got %+v", r)
	}

	v, ok := BestEffortAmount(text)
	if !ok {
		t.Fatal("expected a best-effort amount")
	}
	if v != 3400 {
		t.Fatalf("amount = %v, want 3400", v)
	}
}

func TestBestEffortAmountNoneWithoutAnyAmountLine(t *testing.T) {
	if _, ok := BestEffortAmount("hola como estas"); ok {
		t.Fatal("expected no amount")
	}
}

func TestParseOrderPrefersMercadoPagoOverGenericFirst(t *testing.T) {
	// Mercado Pago precedes every other entry, so even noisy text that also
	// happens to contain a generic bank name resolves to MP first.
	text := "Mercado Pago\nTransferencia\nBanco Galicia\nPagaste $ 1.200"
	r := Parse(text)
	if r.Provider != "Mercado Pago" {
		t.Fatalf("provider = %q, want Mercado Pago", r.Provider)
	}
}
