package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel holds the fields shared by every persisted entity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;column:id;not null;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"type:timestamptz;column:created_at;not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:timestamptz;column:updated_at;not null" json:"updatedAt"`
}

// BeforeCreate is a GORM hook that is triggered before a new record is created.
func (base *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	if base.ID == uuid.Nil {
		base.ID, err = uuid.NewRandom()
		if err != nil {
			return err
		}
	}
	return nil
}
