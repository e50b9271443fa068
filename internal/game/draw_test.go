package game

import (
	"testing"

	"github.com/mcdev12/timeshop/internal/models"
)

func TestDraw_EmptyOrZeroWeight(t *testing.T) {
	var empty DrawTable
	if _, ok := empty.Draw(); ok {
		t.Fatal("empty table should return false")
	}
	zero := DrawTable{{Level: models.LevelNone, Weight: 0}}
	if _, ok := zero.Draw(); ok {
		t.Fatal("all-zero weights should return false")
	}
}

func TestDraw_SingleEntry(t *testing.T) {
	tbl := DrawTable{{Level: models.LevelS, Weight: 10}}
	for i := 0; i < 20; i++ {
		level, ok := tbl.Draw()
		if !ok || level != models.LevelS {
			t.Fatalf("got level %q ok=%v", level, ok)
		}
	}
}

func TestDraw_SkipsDisabledEntries(t *testing.T) {
	tbl := DrawTable{
		{Level: models.LevelNone, Weight: 0},
		{Level: models.LevelA, Weight: 5},
	}
	for i := 0; i < 20; i++ {
		level, ok := tbl.Draw()
		if !ok || level != models.LevelA {
			t.Fatalf("disabled entry leaked through: level %q ok=%v", level, ok)
		}
	}
}

func TestDraw_Distribution(t *testing.T) {
	tbl := DefaultDrawTable()
	const rounds = 100_000
	count := map[models.CardLevel]int{}
	for i := 0; i < rounds; i++ {
		level, ok := tbl.Draw()
		if !ok {
			t.Fatal("Draw failed")
		}
		count[level]++
	}

	expect := map[models.CardLevel]float64{
		models.LevelNone: 0.200,
		models.LevelF:    0.250,
		models.LevelE:    0.250,
		models.LevelD:    0.125,
		models.LevelC:    0.100,
		models.LevelB:    0.050,
		models.LevelA:    0.020,
		models.LevelS:    0.005,
	}
	for level, want := range expect {
		got := float64(count[level]) / rounds
		if got < want-0.02 || got > want+0.02 {
			t.Errorf("level %s: observed %.4f, expected %.3f ± 0.02", level, got, want)
		}
	}
}
