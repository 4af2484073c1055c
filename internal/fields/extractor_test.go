package fields

import "testing"

func TestExtractCUITAndAmount(t *testing.T) {
	text := "CUIT 20-12345678-9\nCVU 0000003100012345678901\n$ 2.345.678,90"
	r := Extract(text)

	if !r.HasAmount {
		t.Fatal("expected an amount")
	}
	if r.Amount != 2345678.90 {
		t.Fatalf("amount = %v, want 2345678.90", r.Amount)
	}
	if r.Origin.CUIT != "20123456789" {
		t.Fatalf("origin CUIT = %q, want 20123456789", r.Origin.CUIT)
	}
}

func TestExtractConceptAndReference(t *testing.T) {
	text := "Mercado Pago\nPagaste\n$ 15.000,00\nConcepto: pago de servicios varios\nReferencia: AB-12"
	r := Extract(text)

	if r.Reference != "AB-12" {
		t.Fatalf("reference = %q, want AB-12", r.Reference)
	}
	if r.Concept == "" {
		t.Fatal("expected a concept to be extracted")
	}
}

func TestExtractNoAmount(t *testing.T) {
	r := Extract("hola como estas")
	if r.HasAmount {
		t.Fatalf("expected no amount, got %v", r.Amount)
	}
}
