package models

// User is a stored account: identity, credential hash and game state.
// PasswordHash is an encoded argon2id string, never the raw secret.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password"`
	State        State  `json:"state"`
}
