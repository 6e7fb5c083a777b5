package repository

import (
	"fmt"

	chatPkg "github.com/dustin/movie-chat-backend/internal/chat"
	"github.com/dustin/movie-chat-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormChatRepository stores chat history with GORM
type gormChatRepository struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewGORMChatRepository creates a new GORM-based chat history repository
func NewGORMChatRepository(db *gorm.DB, log *logger.Logger) chatPkg.Repository {
	return &gormChatRepository{
		db:     db,
		logger: log.WithComponent("gorm-chat-repository"),
	}
}

func (r *gormChatRepository) Save(m *chatPkg.Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if err := r.db.Create(m).Error; err != nil {
		r.logger.Error("Failed to save chat message for user " + m.UserID.String() + ": " + err.Error())
		return fmt.Errorf("failed to save chat message: %w", err)
	}
	return nil
}

func (r *gormChatRepository) FindRecent(userID uuid.UUID, limit int) ([]chatPkg.Message, error) {
	var messages []chatPkg.Message

	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return messages, nil
}
