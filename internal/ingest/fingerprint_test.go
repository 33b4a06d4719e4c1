package ingest

import "testing"

func TestFingerprintDeterministic(t *testing.T) {
	rows := []Row{
		{"id": "C1", "revenue": "100"},
		{"id": "C2", "revenue": "200"},
	}

	a := Fingerprint(rows)
	b := Fingerprint(rows)
	if a != b {
		t.Errorf("fingerprint not deterministic: %s vs %s", a, b)
	}
	if len(a) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(a))
	}
}

func TestFingerprintOrderSensitive(t *testing.T) {
	a := Fingerprint([]Row{{"id": "C1"}, {"id": "C2"}})
	b := Fingerprint([]Row{{"id": "C2"}, {"id": "C1"}})
	if a == b {
		t.Error("expected different fingerprints for reordered rows")
	}
}

func TestFingerprintValueSensitive(t *testing.T) {
	a := Fingerprint([]Row{{"id": "C1", "revenue": "100"}})
	b := Fingerprint([]Row{{"id": "C1", "revenue": "101"}})
	if a == b {
		t.Error("expected different fingerprints for different values")
	}
}

func TestFingerprintEmpty(t *testing.T) {
	if a, b := Fingerprint(nil), Fingerprint([]Row{}); a != b {
		t.Errorf("nil and empty row sets should match: %s vs %s", a, b)
	}
}
