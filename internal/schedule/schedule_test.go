package schedule

import (
	"testing"
	"time"
)

func mustLoadLoc(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("Africa/Johannesburg")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestGenerateEvenDuration(t *testing.T) {
	slots, err := Generate(DefaultWindow(), 60)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("expected 8 slots, got %d", len(slots))
	}
	if slots[0] != "09:00" || slots[len(slots)-1] != "16:00" {
		t.Fatalf("unexpected boundary slots: %v", slots)
	}
	for i := 1; i < len(slots); i++ {
		if slots[i] <= slots[i-1] {
			t.Fatalf("slots not strictly ascending: %v", slots)
		}
	}
}

func TestGenerateThirtyMinutes(t *testing.T) {
	slots, err := Generate(DefaultWindow(), 30)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(slots))
	}
	if slots[1] != "09:30" || slots[len(slots)-1] != "16:30" {
		t.Fatalf("unexpected slots: %v", slots)
	}
}

func TestGenerateTailSlotStartsBeforeClose(t *testing.T) {
	// 90 does not divide the 480-minute window; the 16:00 slot still appears
	// because it starts before 17:00 even though it runs past closing.
	slots, err := Generate(DefaultWindow(), 90)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	want := []string{"09:00", "10:30", "12:00", "13:30", "15:00", "16:30"}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d: %v", len(want), len(slots), slots)
	}
	for i, s := range want {
		if slots[i] != s {
			t.Fatalf("slot %d: expected %s, got %s", i, s, slots[i])
		}
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	if _, err := Generate(DefaultWindow(), 0); err != ErrInvalidDuration {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
	if _, err := Generate(Window{OpenHour: 17, CloseHour: 9}, 30); err != ErrInvalidWindow {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestContains(t *testing.T) {
	ok, err := Contains(DefaultWindow(), 45, "09:45")
	if err != nil {
		t.Fatalf("Contains error: %v", err)
	}
	if !ok {
		t.Fatalf("expected 09:45 to be on the 45-minute grid")
	}

	ok, err = Contains(DefaultWindow(), 45, "10:00")
	if err != nil {
		t.Fatalf("Contains error: %v", err)
	}
	if ok {
		t.Fatalf("expected 10:00 to be off the 45-minute grid")
	}
}

func TestFilterBooked(t *testing.T) {
	slots := []string{"09:00", "09:30", "10:00"}
	booked := map[string]bool{"09:30": true}
	filtered := FilterBooked(slots, booked)
	if len(filtered) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(filtered))
	}
	if filtered[0] != "09:00" || filtered[1] != "10:00" {
		t.Fatalf("unexpected slots: %v", filtered)
	}
}

func TestIsDatePast(t *testing.T) {
	loc := mustLoadLoc(t)
	now := time.Date(2026, 2, 4, 10, 0, 0, 0, loc)
	past, err := IsDatePast("2026-02-03", loc, now)
	if err != nil {
		t.Fatalf("IsDatePast error: %v", err)
	}
	if !past {
		t.Fatalf("expected date to be past")
	}

	past, err = IsDatePast("2026-02-04", loc, now)
	if err != nil {
		t.Fatalf("IsDatePast error: %v", err)
	}
	if past {
		t.Fatalf("expected date to be not past")
	}
}

func TestIsSlotPast(t *testing.T) {
	loc := mustLoadLoc(t)
	now := time.Date(2026, 2, 4, 10, 0, 0, 0, loc)
	past, err := IsSlotPast("2026-02-04", "09:00", loc, now)
	if err != nil {
		t.Fatalf("IsSlotPast error: %v", err)
	}
	if !past {
		t.Fatalf("expected slot to be past")
	}
	past, err = IsSlotPast("2026-02-04", "10:30", loc, now)
	if err != nil {
		t.Fatalf("IsSlotPast error: %v", err)
	}
	if past {
		t.Fatalf("expected slot to be future")
	}
}

func TestFilterPast(t *testing.T) {
	loc := mustLoadLoc(t)
	now := time.Date(2026, 2, 4, 11, 15, 0, 0, loc)
	slots := []string{"09:00", "10:00", "11:00", "12:00", "13:00"}
	filtered, err := FilterPast("2026-02-04", slots, loc, now)
	if err != nil {
		t.Fatalf("FilterPast error: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 slots, got %v", filtered)
	}
	if filtered[0] != "12:00" {
		t.Fatalf("unexpected slots: %v", filtered)
	}
}
