package users

import "time"

type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	DocumentCount int       `json:"documentCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
