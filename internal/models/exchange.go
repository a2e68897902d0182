package models

import "time"

// Document is the single persisted record of the gift exchange.
// Assignments is either empty (no drawing yet) or a derangement over the
// whole roster; Wishlists always carries one entry per participant.
type Document struct {
	Assignments    map[string]string `json:"assignments"`    // giver -> receiver
	Wishlists      map[string]string `json:"wishlists"`      // participant -> free text
	AssignmentDone bool              `json:"assignment_done"`
}

// Clone returns a deep copy so callers can mutate the result freely.
func (d Document) Clone() Document {
	c := Document{
		Assignments:    make(map[string]string, len(d.Assignments)),
		Wishlists:      make(map[string]string, len(d.Wishlists)),
		AssignmentDone: d.AssignmentDone,
	}
	for k, v := range d.Assignments {
		c.Assignments[k] = v
	}
	for k, v := range d.Wishlists {
		c.Wishlists[k] = v
	}
	return c
}

// Pairing is one giver/receiver row, used for ordered rendering.
type Pairing struct {
	Giver    string
	Receiver string
}

// Role of an authenticated user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Session is what the authentication layer hands to the rest of the app:
// who is logged in and whether they may run the drawing.
type Session struct {
	Username string
	Name     string
	Admin    bool
	Expires  time.Time
}
