package models

import "time"

// FacultyRole represents the available roles for the RBAC system.
type FacultyRole string

const (
	RoleAdmin   FacultyRole = "ADMIN"
	RoleFaculty FacultyRole = "FACULTY"
)

// Faculty represents a teaching staff account.
type Faculty struct {
	ID           string      `db:"id" json:"id"`
	FullName     string      `db:"full_name" json:"full_name"`
	Username     string      `db:"username" json:"username"`
	PasswordHash string      `db:"password_hash" json:"-"`
	Subject      string      `db:"subject" json:"subject"`
	Role         FacultyRole `db:"role" json:"role"`
	Active       bool        `db:"active" json:"active"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// FacultyFilter captures filtering options for listing faculty.
type FacultyFilter struct {
	Search    string
	Active    *bool
	Role      *FacultyRole
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// FacultyInfo is the public projection of a faculty record.
type FacultyInfo struct {
	ID       string      `json:"id"`
	FullName string      `json:"full_name"`
	Username string      `json:"username"`
	Subject  string      `json:"subject"`
	Role     FacultyRole `json:"role"`
}

// Info converts a Faculty into its public projection.
func (f Faculty) Info() FacultyInfo {
	return FacultyInfo{
		ID:       f.ID,
		FullName: f.FullName,
		Username: f.Username,
		Subject:  f.Subject,
		Role:     f.Role,
	}
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
