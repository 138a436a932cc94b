package company

import (
	"time"

	"github.com/google/uuid"
)

// Company is the tenant that owns credits and posts
type Company struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
