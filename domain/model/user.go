package model

import (
	"time"

	"github.com/golang-jwt/jwt"
)

// User is a dashboard account, created on first successful OAuth exchange.
// Email is the natural key observed by the rest of the system.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Timezone  string    `json:"tz"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

// UserClaims are the JWT claims carried by the session cookie.
type UserClaims struct {
	Email string `json:"email"`
	jwt.StandardClaims
}
