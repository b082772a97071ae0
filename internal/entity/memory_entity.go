package entity

import "time"

type MemoryTarget string

const (
	MemoryTargetUser    MemoryTarget = "user"
	MemoryTargetCompany MemoryTarget = "company"
)

// MemoryFact is produced by the remote agent as a side effect of a chat turn.
type MemoryFact struct {
	Id        string
	Target    MemoryTarget
	Fact      string
	Timestamp time.Time
}

// MemoryDocuments mirrors the two long-lived memory files held by the service.
type MemoryDocuments struct {
	User      string
	Company   string
	FetchedAt time.Time
}

// Badges are the counters shown in the shell header.
type Badges struct {
	Documents int
	Memories  int
}
