package timeline

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

func mustDefaultClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := DefaultClassifier()
	if err != nil {
		t.Fatalf("default classifier invalid: %v", err)
	}
	return c
}

func TestClassify_KnownTitles(t *testing.T) {
	c := mustDefaultClassifier(t)
	cases := []struct {
		title, want string
	}{
		{"Review service agreement for planner and sign", "Contracts & Agreements"},
		{"Confirm ceremony to ballroom walking path and rain backup plan", "Venue & Logistics"},
		{"Totally unrelated gibberish xyz", "Other"},
		{"", "Other"},
		{"Book the PHOTOGRAPHER", "Vendors & Bookings"},
		{"Mail the invitations", "Stationery & Invites"},
		{"Write the ceremony vows", "Ceremony Details"},
		{"Track deposits", "Budget & Payments"},
		{"Draft the day-of timeline", "Timeline & Decisions"},
		{"Finalize the seating chart", "Guest Experience"},
		{"Schedule first dress fitting and alterations", "Attire & Appearance"},
		{"Define the color palette", "Design & Decor"},
	}
	for _, tc := range cases {
		if got := c.Classify(tc.title); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestClassify_PrecedenceByPriorityNotFileOrder(t *testing.T) {
	rules := []CategoryRule{
		{Label: "Venue & Logistics", Priority: 20, Keywords: []string{"venue"}},
		{Label: "Contracts & Agreements", Priority: 10, Keywords: []string{"agreement"}},
	}
	c, err := NewClassifier(rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	title := "Send venue agreement"
	if got := c.Classify(title); got != "Contracts & Agreements" {
		t.Fatalf("expected contracts to win, got %q", got)
	}

	// Reversing input order must not change the outcome.
	reversed := []CategoryRule{rules[1], rules[0]}
	c2, err := NewClassifier(reversed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c2.Classify(title); got != "Contracts & Agreements" {
		t.Fatalf("expected contracts to win after reorder, got %q", got)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := mustDefaultClassifier(t)
	title := "Confirm final guest count and dietary needs"
	want := c.Classify(title)

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := c.Classify(title); got != want {
				errs <- got
			}
		}()
	}
	wg.Wait()
	close(errs)
	for got := range errs {
		t.Fatalf("non-deterministic classification: %q vs %q", got, want)
	}
}

func TestCategories_ElevenInPrecedenceOrder(t *testing.T) {
	c := mustDefaultClassifier(t)
	want := []string{
		"Contracts & Agreements",
		"Venue & Logistics",
		"Vendors & Bookings",
		"Design & Decor",
		"Guest Experience",
		"Attire & Appearance",
		"Stationery & Invites",
		"Ceremony Details",
		"Budget & Payments",
		"Timeline & Decisions",
		"Other",
	}
	if got := c.Categories(); !reflect.DeepEqual(got, want) {
		t.Fatalf("categories = %v, want %v", got, want)
	}
}

func TestNewClassifier_Rejects(t *testing.T) {
	cases := []struct {
		name  string
		rules []CategoryRule
	}{
		{"empty label", []CategoryRule{{Label: " ", Priority: 1, Keywords: []string{"x"}}}},
		{"reserved label", []CategoryRule{{Label: "Other", Priority: 1, Keywords: []string{"x"}}}},
		{"no keywords", []CategoryRule{{Label: "A", Priority: 1, Keywords: []string{"  "}}}},
		{"duplicate label", []CategoryRule{
			{Label: "A", Priority: 1, Keywords: []string{"x"}},
			{Label: "A", Priority: 2, Keywords: []string{"y"}},
		}},
		{"shared priority", []CategoryRule{
			{Label: "A", Priority: 1, Keywords: []string{"x"}},
			{Label: "B", Priority: 1, Keywords: []string{"y"}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewClassifier(tc.rules)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
