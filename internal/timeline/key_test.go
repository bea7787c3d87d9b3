package timeline

import "testing"

func TestKeyOf(t *testing.T) {
	cases := []struct {
		section, title, want string
	}{
		{"11 months out", "Set the overall wedding budget", "11-months-out-set-the-overall-wedding-budget"},
		{"Final two months", "Pay final vendor balances", "final-two-months-pay-final-vendor-balances"},
		{"  Final two months ", "--Hold the ceremony rehearsal!!", "final-two-months-hold-the-ceremony-rehearsal"},
		{"6 months out", "Reserve rentals for tables, chairs and linens", "6-months-out-reserve-rentals-for-tables-chairs-and-linens"},
		{"", "", ""},
		{"!!", "??", ""},
	}
	for _, tc := range cases {
		if got := KeyOf(tc.section, tc.title); got != tc.want {
			t.Errorf("KeyOf(%q, %q) = %q, want %q", tc.section, tc.title, got, tc.want)
		}
	}
}

func TestKeyOf_Deterministic(t *testing.T) {
	a := KeyOf("9 months out", "Send save-the-dates")
	b := KeyOf("9 months out", "Send save-the-dates")
	if a != b {
		t.Fatalf("expected identical keys, got %q and %q", a, b)
	}
}
