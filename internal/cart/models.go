package cart

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Item struct {
	ID        uuid.UUID `gorm:"primaryKey"                                     json:"id"`
	SessionID string    `gorm:"size:64;uniqueIndex:idx_session_book;not null" json:"session_id"`
	BookID    string    `gorm:"size:64;uniqueIndex:idx_session_book;not null" json:"book_id"`
	Quantity  int       `gorm:"default:1;check:quantity>0"                     json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Item) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (Item) TableName() string {
	return "cart_items"
}
