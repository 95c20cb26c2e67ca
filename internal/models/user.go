package models

import "time"

// UserRole represents the available roles for the RBAC system. Non-admin
// roles double as the educational level used to scope default paper listings.
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleHighSchool UserRole = "HIGH_SCHOOL"
	RoleCollege    UserRole = "COLLEGE"
	RoleUniversity UserRole = "UNIVERSITY"
)

// Level classifies papers by educational tier.
type Level string

const (
	LevelHighSchool Level = "HIGH_SCHOOL"
	LevelCollege    Level = "COLLEGE"
	LevelUniversity Level = "UNIVERSITY"
)

// Grade sub-classifies papers and users within the high-school level.
type Grade string

const (
	Grade10 Grade = "GRADE_10"
	Grade11 Grade = "GRADE_11"
	Grade12 Grade = "GRADE_12"
)

// ValidLevel reports whether the value is a known level.
func ValidLevel(l Level) bool {
	switch l {
	case LevelHighSchool, LevelCollege, LevelUniversity:
		return true
	}
	return false
}

// ValidGrade reports whether the value is a known high-school grade.
func ValidGrade(g Grade) bool {
	switch g {
	case Grade10, Grade11, Grade12:
		return true
	}
	return false
}

// LevelForRole maps a non-admin role to the paper level it browses by default.
func LevelForRole(r UserRole) (Level, bool) {
	switch r {
	case RoleHighSchool:
		return LevelHighSchool, true
	case RoleCollege:
		return LevelCollege, true
	case RoleUniversity:
		return LevelUniversity, true
	}
	return "", false
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Grade        *Grade     `db:"grade" json:"grade,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
