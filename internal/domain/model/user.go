package model

import "time"

// User is a registered tipper. Identity issuance and login live outside
// this service; only the profile fields are owned here.
type User struct {
	ID       string
	Name     string
	Email    string
	JoinedAt time.Time
}
