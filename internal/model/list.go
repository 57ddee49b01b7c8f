package model

import "time"

// List categories. CategoryPersonal is the default for new lists.
const (
	CategoryPersonal = "Personal"
	CategoryWork     = "Work"
	CategoryShopping = "Shopping"
	CategoryOther    = "Other"
)

// Categories is the fixed set of labels a list can carry.
var Categories = []string{
	CategoryPersonal,
	CategoryWork,
	CategoryShopping,
	CategoryOther,
}

// List is a named collection of items owned by a single user.
//
// ID is the local auto-increment identifier and the only identifier
// referenced by foreign keys. RemoteID is the opaque key minted by the
// remote mirror on first successful write; it stays empty until the
// record has been mirrored and never changes once set.
type List struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Category  string    `json:"category" db:"category"`
	RemoteID  string    `json:"remote_id" db:"remote_id"`
}
