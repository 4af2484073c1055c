package adevents

import "testing"

func TestHashExternalIDNormalizes(t *testing.T) {
	a := hashExternalID("  5491122334455 ")
	b := hashExternalID("5491122334455")
	if a != b {
		t.Errorf("hashExternalID should trim whitespace: %q != %q", a, b)
	}
}

func TestHashExternalIDLowercases(t *testing.T) {
	a := hashExternalID("ABC123")
	b := hashExternalID("abc123")
	if a != b {
		t.Errorf("hashExternalID should lowercase: %q != %q", a, b)
	}
}

func TestHashExternalIDDeterministic(t *testing.T) {
	if hashExternalID("5491122334455") != hashExternalID("5491122334455") {
		t.Error("hashExternalID should be deterministic")
	}
}

func TestEmitPurchaseNoopWithoutCredentials(t *testing.T) {
	e := New("", "", "")
	// Must not panic or block; there is nothing to assert on beyond that.
	e.EmitPurchase(nil, Purchase{ExternalID: "x", Value: 1, Currency: "ARS"})
}
