package engine

import "testing"

func TestCheckMilestonesIdempotent(t *testing.T) {
	awarded := map[string]bool{}
	m := Metrics{TotalXP: 1200, TotalCorrect: 55, StreakDays: 7}

	first := CheckMilestones(m, awarded)
	if len(first) == 0 {
		t.Fatalf("expected milestones on first check")
	}
	second := CheckMilestones(m, awarded)
	if len(second) != 0 {
		t.Fatalf("second check returned %d milestones, want 0", len(second))
	}
}

func TestCheckMilestonesJumpGrantsEachOnce(t *testing.T) {
	awarded := map[string]bool{}

	// XP jumps straight past three thresholds in one update.
	got := CheckMilestones(Metrics{TotalXP: 1500}, awarded)
	want := map[string]bool{"xp_100": true, "xp_500": true, "xp_1000": true}
	if len(got) != len(want) {
		t.Fatalf("got %d milestones, want %d", len(got), len(want))
	}
	for _, ms := range got {
		if !want[ms.ID] {
			t.Fatalf("unexpected milestone %q", ms.ID)
		}
	}
	if !awarded["xp_1000"] {
		t.Fatalf("awarded set not updated")
	}
}

func TestCheckMilestonesRespectsAwardedSet(t *testing.T) {
	awarded := map[string]bool{"xp_100": true}
	got := CheckMilestones(Metrics{TotalXP: 150}, awarded)
	if len(got) != 0 {
		t.Fatalf("re-granted already awarded milestone: %v", got)
	}
}

func TestMilestoneCatalogIDsUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, ms := range MilestoneCatalog() {
		if seen[ms.ID] {
			t.Fatalf("duplicate milestone id %q", ms.ID)
		}
		seen[ms.ID] = true
		if ms.Threshold <= 0 {
			t.Fatalf("milestone %q has non-positive threshold", ms.ID)
		}
	}
}
