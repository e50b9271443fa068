package models

// Presence is the lightweight status snapshot one connection reports.
// It is ephemeral: replaced wholesale on each report, dropped on
// disconnect, never persisted.
type Presence struct {
	Username     string      `json:"username"`
	TotalSeconds int         `json:"totalSeconds"`
	Coins        int         `json:"coins"`
	LastCards    []CardLevel `json:"lastCards"`
	HideCoins    bool        `json:"hideCoins"`
}
