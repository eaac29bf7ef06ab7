package users

import (
	"strings"
	"time"
)

// User is the minimal account row that location fixes refer to by id.
type User struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Username  string    `gorm:"column:username;size:255"`
	Email     string    `gorm:"column:email;size:255"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName exposes the table backing users.
func (User) TableName() string {
	return "users"
}

// normalize trims surrounding whitespace from user-supplied profile fields.
func normalize(value string) string {
	return strings.TrimSpace(value)
}
