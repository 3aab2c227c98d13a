package domain

import "time"

// KindSuccess is the journal kind recorded for a successful summarization.
const KindSuccess = "Success"

type Attempt struct {
	UserID       int64
	ChatID       int64
	Kind         string
	InputChars   int
	SummaryChars int
	Duration     time.Duration
	CreatedAt    time.Time
}

type KindCount struct {
	Kind  string
	Count int64
}

type UserStats struct {
	UserID int64
	Total  int64
	Kinds  []KindCount
	LastAt time.Time
}
