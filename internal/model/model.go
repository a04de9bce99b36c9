package model

import (
	"strings"
	"time"
)

// Role is the access level carried by a user and by its session tokens.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleFaculty Role = "FACULTY"
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
)

// ParseRole maps a stored or claimed role name to a Role.
// The match is case-insensitive; ok is false for anything unrecognized.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleFaculty, RoleStudent, RoleTeacher:
		return r, true
	default:
		return "", false
	}
}

func (r Role) String() string { return string(r) }

// User is the public view of an account. The credential hash stays in the
// users package.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// AttendanceRecord is the single attendance fact for a (student, date) pair.
type AttendanceRecord struct {
	ID        int64  `json:"id"`
	StudentID int64  `json:"studentId"`
	Date      string `json:"date"`
	IsPresent bool   `json:"isPresent"`
	MarkedBy  *int64 `json:"markedBy,omitempty"`
}

// Announcement is a notice posted by staff.
type Announcement struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  int64     `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
}
