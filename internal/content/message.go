package content

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/safeguardhq/trustguard/pkg/utils"
	"gorm.io/gorm"
)

// Message is the boundary model for the chat subsystem.
type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SenderID  uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_id"`
	Content   string    `gorm:"type:text;not null" json:"content" validate:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// MessageProvider exposes chat messages as flaggable content.
type MessageProvider struct {
	DB *gorm.DB
}

func NewMessageProvider(db *gorm.DB) *MessageProvider {
	return &MessageProvider{DB: db}
}

func (p *MessageProvider) Kind() string { return "message" }

func (p *MessageProvider) Resolve(ctx context.Context, id uuid.UUID) (Handle, error) {
	var msg Message
	if err := p.DB.WithContext(ctx).First(&msg, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to resolve message")
	}
	return &messageHandle{db: p.DB, msg: msg}, nil
}

func (p *MessageProvider) SearchIDs(ctx context.Context, text string) ([]uuid.UUID, error) {
	q := "%" + strings.ToLower(text) + "%"
	var ids []uuid.UUID
	err := p.DB.WithContext(ctx).Model(&Message{}).
		Where("LOWER(content) LIKE ?", q).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to search messages")
	}
	return ids, nil
}

func (p *MessageProvider) Edit(ctx context.Context, id uuid.UUID, fields map[string]string) error {
	body, ok := fields["content"]
	if !ok {
		return utils.NewError(utils.ErrBadRequest.Code, "No editable message fields provided")
	}
	res := p.DB.WithContext(ctx).Model(&Message{}).Where("id = ?", id).Update("content", body)
	if res.Error != nil {
		return utils.WrapError(res.Error, utils.ErrInternalServerError.Code, "Failed to edit message")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type messageHandle struct {
	db  *gorm.DB
	msg Message
}

func (h *messageHandle) Describe() string {
	return "Message: " + utils.Truncate(h.msg.Content, 50)
}

func (h *messageHandle) Owner() uuid.UUID { return h.msg.SenderID }

func (h *messageHandle) Delete(ctx context.Context) error {
	if err := h.db.WithContext(ctx).Delete(&Message{}, "id = ?", h.msg.ID).Error; err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete message")
	}
	return nil
}
