package models

import (
	"fmt"
	"strings"
)

// CardLevel is a draw outcome rarity. Ordered NONE < F < E < D < C < B < A < S.
type CardLevel string

const (
	LevelNone CardLevel = "NONE"
	LevelF    CardLevel = "F"
	LevelE    CardLevel = "E"
	LevelD    CardLevel = "D"
	LevelC    CardLevel = "C"
	LevelB    CardLevel = "B"
	LevelA    CardLevel = "A"
	LevelS    CardLevel = "S"
)

// AllLevels lists every valid card level in rarity order.
var AllLevels = []CardLevel{LevelNone, LevelF, LevelE, LevelD, LevelC, LevelB, LevelA, LevelS}

// ParseLevel normalizes s to uppercase and validates it against the
// known card levels.
func ParseLevel(s string) (CardLevel, error) {
	level := CardLevel(strings.ToUpper(strings.TrimSpace(s)))
	for _, l := range AllLevels {
		if level == l {
			return level, nil
		}
	}
	return "", fmt.Errorf("invalid card level %q", s)
}
