package models

import "time"

// Review is a card review submitted by an account for a rarity level.
type Review struct {
	Level     CardLevel `json:"level"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
