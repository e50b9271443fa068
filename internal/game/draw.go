package game

import (
	"crypto/rand"
	"math/big"

	"github.com/mcdev12/timeshop/internal/models"
)

// DrawEntry is one weighted outcome in a draw table.
type DrawEntry struct {
	Level  models.CardLevel `json:"level" yaml:"level"`
	Weight int64            `json:"weight" yaml:"weight"`
}

// DrawTable is a weighted categorical distribution over card levels.
// The table is configuration, not a fixed constant: deployments have
// shipped with different tunings.
type DrawTable []DrawEntry

// DefaultDrawTable mirrors the original tuning. Weights are out of
// 1000, so NONE is 20%, F and E 25% each, down to S at 0.5%.
func DefaultDrawTable() DrawTable {
	return DrawTable{
		{Level: models.LevelNone, Weight: 200},
		{Level: models.LevelF, Weight: 250},
		{Level: models.LevelE, Weight: 250},
		{Level: models.LevelD, Weight: 125},
		{Level: models.LevelC, Weight: 100},
		{Level: models.LevelB, Weight: 50},
		{Level: models.LevelA, Weight: 20},
		{Level: models.LevelS, Weight: 5},
	}
}

// totalWeight sums the positive weights. Non-positive entries are
// skipped rather than rejected so a table can disable a level in place.
func (t DrawTable) totalWeight() int64 {
	var total int64
	for _, e := range t {
		if e.Weight > 0 {
			total += e.Weight
		}
	}
	return total
}

// Draw selects one card level by weight using crypto/rand.
// Returns false if the table is empty or has no positive weight.
func (t DrawTable) Draw() (models.CardLevel, bool) {
	total := t.totalWeight()
	if total <= 0 {
		return "", false
	}
	v, err := rand.Int(rand.Reader, big.NewInt(total))
	if err != nil {
		return "", false
	}
	idx := v.Int64()
	var cum int64
	for _, e := range t {
		if e.Weight <= 0 {
			continue
		}
		cum += e.Weight
		if idx < cum {
			return e.Level, true
		}
	}
	return t[len(t)-1].Level, true
}
