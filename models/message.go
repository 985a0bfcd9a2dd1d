package models

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// Message is a direct message between two users
type Message struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	SenderID       uint           `gorm:"not null;index" json:"senderId"`
	Sender         User           `gorm:"foreignKey:SenderID" json:"sender"`
	RecipientID    uint           `gorm:"not null;index" json:"recipientId"`
	Recipient      User           `gorm:"foreignKey:RecipientID" json:"recipient"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	Read           bool           `gorm:"column:is_read;default:false;index" json:"read"`
	ReadAt         *time.Time     `json:"readAt"`
	ConversationID string         `gorm:"not null;index" json:"conversationId"`
	CreatedAt      time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}

// ConversationID returns the stable id shared by both directions of a chat:
// the two user ids as strings, sorted, joined by "_".
func ConversationID(a, b uint) string {
	ids := []string{strconv.FormatUint(uint64(a), 10), strconv.FormatUint(uint64(b), 10)}
	sort.Strings(ids)
	return fmt.Sprintf("%s_%s", ids[0], ids[1])
}
