package timeline

import (
	"testing"
	"time"
)

func TestMonthsSchedule_Window(t *testing.T) {
	s := DefaultSchedule()
	event := time.Date(2027, time.June, 12, 0, 0, 0, 0, time.UTC)

	w, err := s.Window(TimeBucket{Index: 0, Section: "11 months out"}, event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2026, time.July, 12, 0, 0, 0, 0, time.UTC); !w.Opens.Equal(want) {
		t.Fatalf("opens = %v, want %v", w.Opens, want)
	}
	if want := time.Date(2026, time.August, 12, 0, 0, 0, 0, time.UTC); !w.Due.Equal(want) {
		t.Fatalf("due = %v, want %v", w.Due, want)
	}

	last := TimeBucket{Index: len(DefaultSections) - 1, Section: "Final two months"}
	w, err = s.Window(last, event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.Due.Equal(event) {
		t.Fatalf("final bucket should be due on the event date, got %v", w.Due)
	}
}

func TestMonthsSchedule_UnknownSection(t *testing.T) {
	if _, err := DefaultSchedule().Window(TimeBucket{Section: "someday"}, time.Now()); err == nil {
		t.Fatalf("expected error for unknown section")
	}
}

func TestNewMonthsSchedule_RejectsNonMonotonic(t *testing.T) {
	_, err := NewMonthsSchedule([]string{"a", "b"}, map[string]int{"a": 3, "b": 5})
	if err == nil {
		t.Fatalf("expected error for offsets moving away from the event")
	}
	_, err = NewMonthsSchedule([]string{"a", "b"}, map[string]int{"a": 3})
	if err == nil {
		t.Fatalf("expected error for missing offset")
	}
}

func TestCrossed(t *testing.T) {
	s := DefaultSchedule()
	now := time.Date(2026, time.January, 15, 9, 0, 0, 0, time.UTC)
	event := now.AddDate(0, 11, 0)

	eleven := TimeBucket{Index: 0, Section: "11 months out"}
	ten := TimeBucket{Index: 1, Section: "10 months out"}

	if ok, err := Crossed(s, eleven, event, now); err != nil || !ok {
		t.Fatalf("expected 11 months out crossed, got %v %v", ok, err)
	}
	if ok, err := Crossed(s, ten, event, now); err != nil || ok {
		t.Fatalf("expected 10 months out not crossed, got %v %v", ok, err)
	}
}
