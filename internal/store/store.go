package store

import (
	"time"

	"github.com/google/uuid"
)

// Portfolio is a named collection of transactions owned by one user.
type Portfolio struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
