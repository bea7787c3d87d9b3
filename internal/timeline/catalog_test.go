package timeline

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultCatalog_Valid(t *testing.T) {
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
	if c.Len() == 0 {
		t.Fatalf("expected templates in default catalog")
	}

	seen := make(map[string]bool)
	for _, tpl := range c.Templates() {
		key := KeyOf(tpl.Section, tpl.Title)
		if key != tpl.Key {
			t.Fatalf("template key %q does not match KeyOf = %q", tpl.Key, key)
		}
		if seen[key] {
			t.Fatalf("duplicate key %q", key)
		}
		seen[key] = true
		if tpl.Importance < 1 || tpl.Importance > 5 {
			t.Fatalf("%s: importance %d out of range", tpl.Key, tpl.Importance)
		}
	}
}

func TestDefaultCatalog_SectionsInCountdownOrder(t *testing.T) {
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := -1
	for _, tpl := range c.Templates() {
		idx := -1
		for i, s := range DefaultSections {
			if s == tpl.Section {
				idx = i
			}
		}
		if idx < last {
			t.Fatalf("section %q appears after a later section", tpl.Section)
		}
		last = idx
	}
}

func TestCatalog_SectionAndLookup(t *testing.T) {
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := c.Buckets()[0]
	if first.Section != "11 months out" {
		t.Fatalf("expected first bucket 11 months out, got %q", first.Section)
	}
	tpls := c.Section(first)
	if len(tpls) == 0 {
		t.Fatalf("expected templates in %q", first.Section)
	}
	for _, tpl := range tpls {
		if tpl.Section != first.Section {
			t.Fatalf("template %q leaked into %q", tpl.Key, first.Section)
		}
		got, ok := c.Lookup(tpl.Key)
		if !ok || got.Title != tpl.Title {
			t.Fatalf("lookup %q failed", tpl.Key)
		}
	}
	if _, ok := c.Lookup("no-such-key"); ok {
		t.Fatalf("expected lookup miss")
	}
	if got := c.Section(TimeBucket{Index: 0, Section: "10 months out"}); got != nil {
		t.Fatalf("mismatched bucket should return nil, got %d templates", len(got))
	}
}

func TestCatalog_TemplatesReturnsCopy(t *testing.T) {
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tpls := c.Templates()
	original := tpls[0].Title
	tpls[0].Title = "mutated"
	if c.Templates()[0].Title != original {
		t.Fatalf("catalog mutated through returned slice")
	}
}

func TestNewCatalog_Rejects(t *testing.T) {
	sections := []string{"11 months out", "10 months out"}
	cases := []struct {
		name   string
		groups []SectionGroup
		want   string
	}{
		{
			name: "duplicate key",
			groups: []SectionGroup{{Section: "11 months out", Templates: []TaskTemplate{
				{Title: "Book venue", Owner: OwnerClient, Importance: 3},
				{Title: "Book  venue!", Owner: OwnerClient, Importance: 3},
			}}},
			want: "duplicate key",
		},
		{
			name: "out of order",
			groups: []SectionGroup{
				{Section: "10 months out", Templates: []TaskTemplate{{Title: "A", Owner: OwnerClient, Importance: 1}}},
				{Section: "11 months out", Templates: []TaskTemplate{{Title: "B", Owner: OwnerClient, Importance: 1}}},
			},
			want: "out of countdown order",
		},
		{
			name: "importance range",
			groups: []SectionGroup{{Section: "11 months out", Templates: []TaskTemplate{
				{Title: "A", Owner: OwnerPlanner, Importance: 6},
			}}},
			want: "importance 6 out of range",
		},
		{
			name: "importance zero",
			groups: []SectionGroup{{Section: "11 months out", Templates: []TaskTemplate{
				{Title: "A", Owner: OwnerPlanner},
			}}},
			want: "importance 0 out of range",
		},
		{
			name: "empty title",
			groups: []SectionGroup{{Section: "11 months out", Templates: []TaskTemplate{
				{Title: "   ", Owner: OwnerPlanner, Importance: 2},
			}}},
			want: "empty title",
		},
		{
			name: "unknown section",
			groups: []SectionGroup{{Section: "Someday", Templates: []TaskTemplate{
				{Title: "A", Owner: OwnerPlanner, Importance: 2},
			}}},
			want: "unknown section",
		},
		{
			name: "bad owner",
			groups: []SectionGroup{{Section: "11 months out", Templates: []TaskTemplate{
				{Title: "A", Owner: "vendor", Importance: 2},
			}}},
			want: "invalid owner",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCatalog(sections, tc.groups)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestParseCatalog_KeysStableAcrossReorder(t *testing.T) {
	a := []byte(`
sections:
  - section: "11 months out"
    templates:
      - {title: "Set the budget", owner: client, importance: 5}
      - {title: "Book planner", owner: planner, importance: 4}
`)
	b := []byte(`
sections:
  - section: "11 months out"
    templates:
      - {title: "Book planner", owner: planner, importance: 4}
      - {title: "Set the budget", owner: client, importance: 5}
`)
	ca, err := ParseCatalog(a, DefaultSections)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cb, err := ParseCatalog(b, DefaultSections)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, tpl := range ca.Templates() {
		other, ok := cb.Lookup(tpl.Key)
		if !ok || other.Title != tpl.Title {
			t.Fatalf("key %q not stable across reorder", tpl.Key)
		}
	}
}
