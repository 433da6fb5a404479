package auth

import "time"

const (
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FullName        string    `json:"fullName"`
	Role            string    `json:"role"`
	VacationBalance int       `json:"vacationBalance"`
	CreatedAt       time.Time `json:"createdAt"`
}

type AuthUser struct {
	ID           string
	Email        string
	FullName     string
	Role         string
	PasswordHash string
}

// UserContext is the authenticated identity the middleware attaches to
// a request. The domain layer trusts it and applies its own
// authorization rules on top.
type UserContext struct {
	UserID string
	Email  string
	Role   string
}

func (u UserContext) IsAdmin() bool {
	return u.Role == RoleAdmin
}
