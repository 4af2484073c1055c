package adpages

import "testing"

func TestEmitterForReturnsNilWithoutDatabase(t *testing.T) {
	// No database connection is configured in this test; lookupPage must
	// fail closed and EmitterFor must return nil rather than panic.
	r := NewRegistry()
	if e := r.EmitterFor("proj1", ""); e != nil {
		t.Error("expected nil emitter when the page lookup fails")
	}
}

func TestEmitterForReturnsNilForUnknownPage(t *testing.T) {
	r := NewRegistry()
	if e := r.EmitterFor("proj1", "page-does-not-exist"); e != nil {
		t.Error("expected nil emitter for a page that cannot be resolved")
	}
}

func TestNewRegistryStartsEmpty(t *testing.T) {
	r := NewRegistry()
	if len(r.emitters) != 0 {
		t.Error("expected a freshly constructed registry to have no cached emitters")
	}
}
