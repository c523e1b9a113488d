package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// AllPermissions grants every permission check.
const AllPermissions = "all_permissions"

// User is the authenticated principal: a live, active user with the names of
// its live roles and its effective permissions.
type User struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// HasPermission reports whether the user holds any of required. The wildcard
// permission satisfies every check, including an empty one.
func (u *User) HasPermission(required ...string) bool {
	if u == nil {
		return false
	}
	for _, p := range u.Permissions {
		if p == AllPermissions {
			return true
		}
	}
	for _, p := range u.Permissions {
		for _, r := range required {
			if p == r {
				return true
			}
		}
	}
	return false
}

func (u *User) HasRole(name string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
