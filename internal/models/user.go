package models

import "time"

// User is an account allowed to sign in. PasswordHash is a bcrypt hash.
type User struct {
	ID           string    `bson:"_id,omitempty" json:"id,omitempty"`
	Username     string    `bson:"username" json:"username"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}
