package models

import (
	"time"
)

// User represents an account in the GP economy
type User struct {
	DiscordID int64     `db:"discord_id"`
	Username  string    `db:"username"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CanAfford checks if the user has enough GP to cover the given amount
func (u *User) CanAfford(amount int64) bool {
	return u.Balance >= amount
}
