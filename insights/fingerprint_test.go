package insights

import (
	"strings"
	"testing"
)

func TestHashText_KnownValues(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "0"},
		{"{}", "31e"},
		{"a", "2p"},
		{"£", "4j"},
		{"hello world", "to5x38"},
		{`{"a":1}`, "-numd4y"},
		{"😀", "11zz7"},
	}
	for _, tc := range cases {
		if got := HashText(tc.in); got != tc.want {
			t.Fatalf("HashText(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestCanonicalJSON_IsCompactAndUnescaped(t *testing.T) {
	got, err := CanonicalJSON(map[string]string{"name": "Tables & <Chairs>"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"name":"Tables & <Chairs>"}` {
		t.Fatalf("unexpected canonical form: %s", got)
	}
}

func TestCanonicalJSON_EscapesLineSeparators(t *testing.T) {
	got, err := CanonicalJSON("Sofa \u2028 \u2029 😀")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := `"Sofa \u2028 \u2029 😀"`; got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestFingerprint_DeterministicAndContentSensitive(t *testing.T) {
	now := fixedNow()
	a := Summarize(now, sampleSnapshot(now)).Summary
	b := Summarize(now, sampleSnapshot(now)).Summary

	fa, err := Fingerprint(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fb, _ := Fingerprint(b)
	if fa != fb {
		t.Fatalf("equal summaries must hash equal: %s vs %s", fa, fb)
	}

	b.Inventory.TotalProducts++
	fc, _ := Fingerprint(b)
	if fa == fc {
		t.Fatalf("expected fingerprint to change when the summary changes")
	}
}

func TestFingerprint_FieldOrderMatchesSummaryShape(t *testing.T) {
	text, err := CanonicalJSON(DataSummary{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sales := strings.Index(text, `"salesTrends"`)
	inventory := strings.Index(text, `"inventory"`)
	operations := strings.Index(text, `"operations"`)
	if !(sales >= 0 && sales < inventory && inventory < operations) {
		t.Fatalf("unexpected section order: %s", text)
	}
	if !strings.Contains(text, `"statusDistribution":{"paid":0,"shipped":0,"delivered":0,"cancelled":0}`) {
		t.Fatalf("unexpected status distribution shape: %s", text)
	}
}
