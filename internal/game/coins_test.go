package game

import "testing"

func TestThresholdIndex(t *testing.T) {
	cases := []struct {
		total, interval, want int
	}{
		{0, 20, 0},
		{19, 20, 0},
		{20, 20, 1},
		{39, 20, 1},
		{40, 20, 2},
		{1000, 20, 50},
		{10, 0, 0},
		{10, -1, 0},
	}
	for _, c := range cases {
		if got := ThresholdIndex(c.total, c.interval); got != c.want {
			t.Errorf("ThresholdIndex(%d, %d) = %d, want %d", c.total, c.interval, got, c.want)
		}
	}
}

func TestEvaluateThreshold_FiresOnCrossing(t *testing.T) {
	fired, triggered := EvaluateThreshold(20, 0, 20, false)
	if !fired || triggered != 1 {
		t.Fatalf("expected fire with triggered=1, got fired=%v triggered=%d", fired, triggered)
	}

	// Same index again must not fire.
	fired, triggered = EvaluateThreshold(25, 1, 20, false)
	if fired || triggered != 1 {
		t.Fatalf("expected no fire, got fired=%v triggered=%d", fired, triggered)
	}
}

func TestEvaluateThreshold_PendingSuppresses(t *testing.T) {
	fired, triggered := EvaluateThreshold(40, 1, 20, true)
	if fired || triggered != 1 {
		t.Fatalf("pending offer must suppress fire, got fired=%v triggered=%d", fired, triggered)
	}
}

func TestEvaluateThreshold_SkippedThresholdsCollapse(t *testing.T) {
	// Client backgrounded across multiple intervals: one event, and the
	// recorded index jumps straight to the latest threshold.
	fired, triggered := EvaluateThreshold(100, 1, 20, false)
	if !fired || triggered != 5 {
		t.Fatalf("expected one fire jumping to 5, got fired=%v triggered=%d", fired, triggered)
	}

	// Nothing left to claim afterwards.
	fired, _ = EvaluateThreshold(100, 5, 20, false)
	if fired {
		t.Fatal("no second fire expected after collapse")
	}
}

func TestAvailableCoins(t *testing.T) {
	cases := []struct {
		claimed, spent, want int
	}{
		{0, 0, 2},
		{1, 0, 3},
		{1, 3, 0},
		{10, 9, 3},
		{0, 3, -1}, // not clamped; gating happens before a draw
	}
	for _, c := range cases {
		if got := AvailableCoins(c.claimed, c.spent); got != c.want {
			t.Errorf("AvailableCoins(%d, %d) = %d, want %d", c.claimed, c.spent, got, c.want)
		}
	}
}

func TestCanDraw(t *testing.T) {
	if CanDraw(0, 0) {
		t.Fatal("2 coins must not afford a draw")
	}
	if !CanDraw(1, 0) {
		t.Fatal("3 coins must afford a draw")
	}
	if CanDraw(4, 4) {
		t.Fatal("spent-down balance must not afford a draw")
	}
}
