package storage

import "encoding/json"

// Roles assignable to a user account.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User is a registered account.
type User struct {
	ID             int64  `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	HashedPassword string `json:"-"`
	Role           string `json:"role"`
	RefreshToken   string `json:"-"`
	CreatedAt      int64  `json:"-"` // unix seconds
}

// Analysis is one stored analysis record. FullResult holds the serialized
// AnalysisResult exactly as returned to the client.
type Analysis struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	Filename       string          `json:"filename"`
	Score          int             `json:"score"`
	FileObjectName string          `json:"-"`
	FullResult     json.RawMessage `json:"-"`
	CreatedAt      int64           `json:"-"` // unix seconds
}
