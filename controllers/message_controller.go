package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nearnect/nearnect-api/config"
	"github.com/nearnect/nearnect-api/models"
	"github.com/nearnect/nearnect-api/services"
)

const messagePreviewLength = 100

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	RecipientID uint   `json:"recipientId" binding:"required"`
	Content     string `json:"content" binding:"required"`
}

// Conversation summarises one chat partner of the caller
type Conversation struct {
	ConversationID string             `json:"conversationId"`
	OtherUser      models.UserSummary `json:"otherUser"`
	LastMessage    models.Message     `json:"lastMessage"`
	UnreadCount    int64              `json:"unreadCount"`
}

// messagePreview shortens content for notifications and emails
func messagePreview(content string) string {
	runes := []rune(content)
	if len(runes) <= messagePreviewLength {
		return content
	}
	return string(runes[:messagePreviewLength]) + "..."
}

// SendMessage handles POST /api/v1/messages - sends a direct message
func SendMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Message content cannot be empty")
		return
	}
	if req.RecipientID == user.ID {
		respondError(c, http.StatusBadRequest, "SELF_MESSAGE", "You cannot message yourself")
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())

	var recipient models.User
	if err := db.First(&recipient, req.RecipientID).Error; err != nil {
		if isNotFound(err) {
			respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "Recipient not found")
			return
		}
		respondServerError(c, "DATABASE_ERROR", "Failed to load recipient", err)
		return
	}

	message := models.Message{
		SenderID:       user.ID,
		RecipientID:    recipient.ID,
		Content:        content,
		ConversationID: models.ConversationID(user.ID, recipient.ID),
	}
	if err := db.Create(&message).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to send message", err)
		return
	}

	preview := messagePreview(content)
	services.Notify(c.Request.Context(), config.GetDB(), services.NotificationInput{
		UserID:      recipient.ID,
		Type:        models.NotificationTypeMessage,
		Title:       "New Message",
		Message:     user.Name + ": " + preview,
		Icon:        "fas fa-envelope",
		RelatedID:   &message.ID,
		RelatedType: "message",
		ActionURL:   "/messages.html?conversation=" + message.ConversationID,
	})
	if recipient.NotificationPrefs.NewMessages {
		services.GetEmailService().SendNewMessage(recipient.Email, user.Name, preview)
	}

	message.Sender = *user
	message.Recipient = recipient
	respondOK(c, http.StatusCreated, message)
}

// ListConversations handles GET /api/v1/messages - the caller's conversations, newest first
func ListConversations(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())

	var messages []models.Message
	if err := db.Preload("Sender").Preload("Recipient").
		Where("sender_id = ? OR recipient_id = ?", user.ID, user.ID).
		Order("created_at DESC").Order("id DESC").
		Find(&messages).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to fetch conversations", err)
		return
	}

	var unread []struct {
		ConversationID string
		Count          int64
	}
	if err := db.Model(&models.Message{}).
		Select("conversation_id, COUNT(*) AS count").
		Where("recipient_id = ? AND is_read = ?", user.ID, false).
		Group("conversation_id").
		Scan(&unread).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to count unread messages", err)
		return
	}
	unreadByConversation := make(map[string]int64, len(unread))
	for _, u := range unread {
		unreadByConversation[u.ConversationID] = u.Count
	}

	conversations := []Conversation{}
	seen := make(map[string]bool)
	for _, m := range messages {
		if seen[m.ConversationID] {
			continue
		}
		seen[m.ConversationID] = true

		other := m.Recipient
		if m.RecipientID == user.ID {
			other = m.Sender
		}
		conversations = append(conversations, Conversation{
			ConversationID: m.ConversationID,
			OtherUser:      other.Summary(),
			LastMessage:    m,
			UnreadCount:    unreadByConversation[m.ConversationID],
		})
	}

	respondOK(c, http.StatusOK, conversations)
}

// GetConversation handles GET /api/v1/messages/:id - the thread of conversation :id.
// The caller's unread messages in it are marked read.
func GetConversation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	conversationID := c.Param("id")
	if !isConversationParticipant(conversationID, user.ID) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You are not part of this conversation")
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())

	var messages []models.Message
	if err := db.Preload("Sender").Preload("Recipient").
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").Order("id ASC").
		Find(&messages).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to fetch messages", err)
		return
	}
	if len(messages) == 0 {
		respondError(c, http.StatusNotFound, "CONVERSATION_NOT_FOUND", "Conversation not found")
		return
	}

	now := time.Now()
	if err := db.Model(&models.Message{}).
		Where("conversation_id = ? AND recipient_id = ? AND is_read = ?", conversationID, user.ID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to mark messages read", err)
		return
	}
	for i := range messages {
		if messages[i].RecipientID == user.ID && !messages[i].Read {
			messages[i].Read = true
			messages[i].ReadAt = &now
		}
	}

	respondOK(c, http.StatusOK, messages)
}

// GetConversationWithUser handles GET /api/v1/messages/user/:userId
func GetConversationWithUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	otherID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())

	var other models.User
	if err := db.First(&other, otherID).Error; err != nil {
		if isNotFound(err) {
			respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
			return
		}
		respondServerError(c, "DATABASE_ERROR", "Failed to load user", err)
		return
	}

	conversationID := models.ConversationID(user.ID, other.ID)
	messages := []models.Message{}
	if err := db.Preload("Sender").Preload("Recipient").
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").Order("id ASC").
		Find(&messages).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to fetch messages", err)
		return
	}

	var unreadCount int64
	for _, m := range messages {
		if m.RecipientID == user.ID && !m.Read {
			unreadCount++
		}
	}

	respondOK(c, http.StatusOK, gin.H{
		"conversationId": conversationID,
		"otherUser":      other.Summary(),
		"messages":       messages,
		"unreadCount":    unreadCount,
	})
}

// MarkMessageRead handles PATCH /api/v1/messages/:id/read - recipient only
func MarkMessageRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())

	var message models.Message
	if err := db.First(&message, id).Error; err != nil {
		if isNotFound(err) {
			respondError(c, http.StatusNotFound, "MESSAGE_NOT_FOUND", "Message not found")
			return
		}
		respondServerError(c, "DATABASE_ERROR", "Failed to load message", err)
		return
	}
	if message.RecipientID != user.ID {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only the recipient can mark a message read")
		return
	}

	if !message.Read {
		now := time.Now()
		if err := db.Model(&message).Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error; err != nil {
			respondServerError(c, "DATABASE_ERROR", "Failed to mark message read", err)
			return
		}
		message.Read = true
		message.ReadAt = &now
	}

	respondOK(c, http.StatusOK, message)
}

// DeleteMessage handles DELETE /api/v1/messages/:id - sender only
func DeleteMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())

	var message models.Message
	if err := db.First(&message, id).Error; err != nil {
		if isNotFound(err) {
			respondError(c, http.StatusNotFound, "MESSAGE_NOT_FOUND", "Message not found")
			return
		}
		respondServerError(c, "DATABASE_ERROR", "Failed to load message", err)
		return
	}
	if message.SenderID != user.ID {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only the sender can delete a message")
		return
	}

	if err := db.Delete(&message).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to delete message", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Message deleted",
	})
}

func isConversationParticipant(conversationID string, userID uint) bool {
	uid := strconv.FormatUint(uint64(userID), 10)
	for _, part := range strings.Split(conversationID, "_") {
		if part == uid {
			return true
		}
	}
	return false
}
