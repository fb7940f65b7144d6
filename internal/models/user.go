package models

// User is an operator allowed to invoke remote functions on the logger.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}
