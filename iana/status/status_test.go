package status

import "testing"

func TestStatusStringAndParseRoundTrip(t *testing.T) {
	t.Parallel()
	for _, s := range SupportedStatuses() {
		if got := Parse(s.String()); got != s {
			t.Errorf("Parse(%q) = %v, want %v", s.String(), got, s)
		}
	}
}

func TestParseUnknownIsUndefined(t *testing.T) {
	t.Parallel()
	if got := Parse("not-a-real-status"); got != Undefined {
		t.Errorf("Parse(bogus) = %v, want Undefined", got)
	}
}

func TestStatusMarshalUnmarshalText(t *testing.T) {
	t.Parallel()
	var s Status = Deprecated
	text, err := s.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	var got Status
	if err := got.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if got != Deprecated {
		t.Errorf("round-tripped status = %v, want Deprecated", got)
	}
}
