package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Validity states for soft-deletable rows. Archived rows stay referenced
// by historical time records; they are only hidden from "open" listings.
const (
	ValidID    = 1
	ArchivedID = 2
)

type User struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Email       string    `json:"email" db:"email"`
	Password    string    `json:"-" db:"password"` // bcrypt hash, never exposed
	UsergroupID int64     `json:"usergroup_id" db:"usergroup_id"`
	ValidID     int       `json:"valid_id" db:"valid_id"`
	CreateTime  time.Time `json:"create_time" db:"create_time"`
}

func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

func (u *User) IsArchived() bool { return u.ValidID != ValidID }

// Usergroup ties users to the permission set the navigation layer
// filters on. The engine itself only reads it at login.
type Usergroup struct {
	ID          int64  `json:"id" db:"id"`
	Description string `json:"description" db:"description"`
}

// Permission is a URL a usergroup may reach. Page-level filtering is the
// web layer's concern; the core only lists them per user.
type Permission struct {
	ID  int64  `json:"id" db:"id"`
	URL string `json:"url" db:"url"`
}
