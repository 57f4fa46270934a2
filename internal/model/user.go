package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email     string    `json:"email" gorm:"size:256;not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	Role      Role      `json:"role" gorm:"size:32;not null;default:ProjectManager"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
