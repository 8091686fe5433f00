package database

import "time"

// Birthday is one partner's birthday record. Name is the natural key and is
// unique within the table; ID is a storage surrogate with no meaning beyond
// that. Date carries the parse-time year (the source sheet has no year
// column), so only its month and day are significant.
type Birthday struct {
	ID   int64     `db:"id"`
	Name string    `db:"name"`
	Date time.Time `db:"date"`
}

// Subscription is a chat enrolled in the daily birthday mailing.
type Subscription struct {
	ChatID    int64     `db:"chat_id"`
	CreatedAt time.Time `db:"created_at"`
}
