package models

import "time"

// User is one bot user with an internal Stars balance.
type User struct {
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"`
	Balance   int64     `db:"balance"`
	Autobuy   bool      `db:"autobuy"`
	CreatedAt time.Time `db:"created_at"`
}

// Rule holds the per-user autobuy constraints.
type Rule struct {
	UserID      int64     `db:"user_id"`
	OnlyLimited bool      `db:"only_limited"`
	MinPrice    int64     `db:"min_price"`
	MaxPrice    int64     `db:"max_price"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// AutobuyUser is one row of the users⋈rules join the watcher evaluates
// against every new gift.
type AutobuyUser struct {
	UserID      int64
	Balance     int64
	OnlyLimited bool
	MinPrice    int64
	MaxPrice    int64
}

// Candidate pairs an eligible user with the gift to buy for them.
type Candidate struct {
	User AutobuyUser
	Gift Gift
}

// Payment records one balance top-up.
type Payment struct {
	ID      string    `db:"id"`
	UserID  int64     `db:"user_id"`
	Amount  int64     `db:"amount"`
	Payload string    `db:"payload"`
	TS      time.Time `db:"ts"`
}
