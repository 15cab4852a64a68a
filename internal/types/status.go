package types

// Status is a type for the record status of a resource in the store.
// This tracks soft deletion and archival, independent of the subscription
// lifecycle state.
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
)
