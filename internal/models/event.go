package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Event struct {
	gorm.Model
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Title       string    `gorm:"not null"`
	Description string
	StartTime   time.Time `gorm:"not null"`
	EndTime     time.Time `gorm:"not null"`
	Venue       string    `gorm:"not null"`
	City        string
	User        User
	UserID      uuid.UUID
	Classes     []TicketClass `gorm:"foreignKey:EventID"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}
