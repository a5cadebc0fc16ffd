package domain

// Role represents a user role in the system
type Role string

const (
	RoleUser      Role = "USER"
	RoleTreasurer Role = "TREASURER"
	RoleAdmin     Role = "ADMIN"
)

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
