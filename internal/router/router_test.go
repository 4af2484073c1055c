package router

import "testing"

func TestSeenSetDedupes(t *testing.T) {
	s := newSeenSet(10)
	if !s.addIfNew("a") {
		t.Error("first add of a new ID should report true")
	}
	if s.addIfNew("a") {
		t.Error("second add of the same ID should report false")
	}
}

func TestSeenSetEvictsOldest(t *testing.T) {
	s := newSeenSet(2)
	s.addIfNew("a")
	s.addIfNew("b")
	s.addIfNew("c") // evicts "a"

	if !s.addIfNew("a") {
		t.Error("expected 'a' to have been evicted and accepted as new again")
	}
}

func TestLeadTriggerMatches(t *testing.T) {
	cases := []string{
		"Hola mi codigo de descuento es: ABC123",
		"hola mi código de descuento es ABC123",
		"  Hola mi codigo de descuento es- ABC123",
	}
	for _, text := range cases {
		if !leadTrigger.MatchString(text) {
			t.Errorf("expected lead trigger to match %q", text)
		}
	}
}

func TestLeadTriggerDoesNotMatchOrdinaryText(t *testing.T) {
	if leadTrigger.MatchString("hola, tengo una consulta sobre mi pedido") {
		t.Error("expected ordinary greeting to not match lead trigger")
	}
}

func TestAcceptedMimeTypes(t *testing.T) {
	if !acceptedMimeTypes["image/jpeg"] {
		t.Error("expected image/jpeg to be accepted")
	}
	if acceptedMimeTypes["text/plain"] {
		t.Error("expected text/plain to not be accepted")
	}
}
