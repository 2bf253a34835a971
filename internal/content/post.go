package content

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/safeguardhq/trustguard/pkg/utils"
	"gorm.io/gorm"
)

// Post is the boundary model for the posting subsystem. The moderation engine
// only previews, edits and deletes posts; everything else lives elsewhere.
type Post struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`
	Title     string    `gorm:"size:255;not null" json:"title" validate:"required,max=255"`
	Body      string    `gorm:"type:text" json:"body"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PostProvider exposes posts as flaggable content.
type PostProvider struct {
	DB *gorm.DB
}

func NewPostProvider(db *gorm.DB) *PostProvider {
	return &PostProvider{DB: db}
}

func (p *PostProvider) Kind() string { return "post" }

func (p *PostProvider) Resolve(ctx context.Context, id uuid.UUID) (Handle, error) {
	var post Post
	if err := p.DB.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to resolve post")
	}
	return &postHandle{db: p.DB, post: post}, nil
}

// SearchIDs matches post titles and bodies against free text.
func (p *PostProvider) SearchIDs(ctx context.Context, text string) ([]uuid.UUID, error) {
	q := "%" + strings.ToLower(text) + "%"
	var ids []uuid.UUID
	err := p.DB.WithContext(ctx).Model(&Post{}).
		Where("LOWER(title) LIKE ? OR LOWER(body) LIKE ?", q, q).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to search posts")
	}
	return ids, nil
}

// Edit updates moderator-editable post fields.
func (p *PostProvider) Edit(ctx context.Context, id uuid.UUID, fields map[string]string) error {
	updates := map[string]interface{}{}
	if title, ok := fields["title"]; ok {
		updates["title"] = title
	}
	if body, ok := fields["body"]; ok {
		updates["body"] = body
	}
	if len(updates) == 0 {
		return utils.NewError(utils.ErrBadRequest.Code, "No editable post fields provided")
	}
	res := p.DB.WithContext(ctx).Model(&Post{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return utils.WrapError(res.Error, utils.ErrInternalServerError.Code, "Failed to edit post")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type postHandle struct {
	db   *gorm.DB
	post Post
}

func (h *postHandle) Describe() string {
	return "Post: " + utils.Truncate(h.post.Title, 50)
}

func (h *postHandle) Owner() uuid.UUID { return h.post.AuthorID }

func (h *postHandle) Delete(ctx context.Context) error {
	// Zero rows affected means another path removed it already; fine either way.
	if err := h.db.WithContext(ctx).Delete(&Post{}, "id = ?", h.post.ID).Error; err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete post")
	}
	return nil
}
