package models

import "time"

// Gift is the canonical shape of one catalog entry after normalization.
// ID is the sole diff key: two polls returning the same ID are the same
// logical gift even when title or price drift between polls.
type Gift struct {
	ID    string
	Title string
	Price int64 // in Stars

	// Limited is only meaningful when LimitedKnown is true. The Bot API
	// catalog carries no supply information at all, in which case both
	// fields stay false and matching must not filter on them.
	Limited      bool
	LimitedKnown bool

	// Supply is the remaining count if the provider reports one; nil
	// means unknown or unlimited.
	Supply *int64
}

// Available reports whether a gift can still be bought: either the
// remaining count is unknown or it is positive.
func (g Gift) Available() bool {
	return g.Supply == nil || *g.Supply > 0
}

// LogEntry is one persisted log row.
type LogEntry struct {
	ID      int64     `db:"id"`
	Level   string    `db:"level"`
	Message string    `db:"message"`
	TS      time.Time `db:"ts"`
}
