package whatsapp

import (
	"testing"

	"go.mau.fi/whatsmeow/types"
)

func TestShouldPurgeAuth(t *testing.T) {
	cases := map[string]bool{
		"LOGOUT":               true,
		"logout from device":   true,
		"stream:error (conflict)": false,
		"connection reset":    false,
	}
	for reason, want := range cases {
		if got := shouldPurgeAuth(reason); got != want {
			t.Errorf("shouldPurgeAuth(%q) = %v, want %v", reason, got, want)
		}
	}
}

func TestAuthDBPath(t *testing.T) {
	got := authDBPath("/data/wa", "line-42")
	want := "/data/wa/wa_session_line_line-42.db"
	if got != want {
		t.Errorf("authDBPath = %q, want %q", got, want)
	}
}

func TestAuthDBPathTrimsTrailingSlash(t *testing.T) {
	got := authDBPath("/data/wa/", "line-42")
	want := "/data/wa/wa_session_line_line-42.db"
	if got != want {
		t.Errorf("authDBPath = %q, want %q", got, want)
	}
}

func TestIsIndividualChat(t *testing.T) {
	individual := types.JID{User: "5491100000000", Server: types.DefaultUserServer}
	group := types.JID{User: "12345-67890", Server: types.GroupServer}

	if !isIndividualChat(individual) {
		t.Error("expected individual chat JID to be classified as individual")
	}
	if isIndividualChat(group) {
		t.Error("expected group chat JID to not be classified as individual")
	}
}

func TestStateTransitionsViaSetState(t *testing.T) {
	s := &LineSession{LineID: "x", State: StateInitializing}
	s.setState(StateQR)
	if got := s.getState(); got != StateQR {
		t.Errorf("getState = %q, want %q", got, StateQR)
	}
}
