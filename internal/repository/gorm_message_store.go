package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hallway-live/room-service/internal/domain"
	"github.com/hallway-live/room-service/pkg/database"
)

// MessageRecord is the persisted form of a chat message. Rows are keyed by
// (room_id, id); message ids are only unique within a room.
type MessageRecord struct {
	RoomID    string `gorm:"column:room_id;primaryKey;size:128"`
	ID        string `gorm:"column:id;primaryKey;size:128"`
	Username  string `gorm:"column:username;size:256"`
	Role      string `gorm:"column:role;size:32"`
	Content   string `gorm:"column:content"`
	Timestamp int64  `gorm:"column:timestamp;index"`
}

// TableName overrides the GORM table name.
func (MessageRecord) TableName() string {
	return "messages"
}

// GormMessageStore implements MessageStore on a GORM connection
// (sqlite, postgres or mysql).
type GormMessageStore struct {
	db *gorm.DB
}

func NewGormMessageStore(db *gorm.DB) *GormMessageStore {
	return &GormMessageStore{db: db}
}

func (s *GormMessageStore) EnsureSchema(ctx context.Context) error {
	if err := database.AutoMigrate(s.db.WithContext(ctx), &MessageRecord{}); err != nil {
		return fmt.Errorf("failed to migrate messages table: %w", err)
	}
	return nil
}

func (s *GormMessageStore) List(ctx context.Context, roomID string) ([]domain.ChatMessage, error) {
	var records []MessageRecord
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("timestamp ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages := make([]domain.ChatMessage, 0, len(records))
	for _, r := range records {
		messages = append(messages, domain.ChatMessage{
			ID:        r.ID,
			Content:   r.Content,
			User:      r.Username,
			Role:      domain.Role(r.Role),
			Timestamp: r.Timestamp,
		})
	}

	return messages, nil
}

func (s *GormMessageStore) Upsert(ctx context.Context, roomID string, msg domain.ChatMessage) error {
	record := MessageRecord{
		RoomID:    roomID,
		ID:        msg.ID,
		Username:  msg.User,
		Role:      string(msg.Role),
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "role", "content", "timestamp"}),
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to upsert message %s: %w", msg.ID, err)
	}
	return nil
}

func (s *GormMessageStore) Delete(ctx context.Context, roomID, id string) error {
	err := s.db.WithContext(ctx).
		Where("room_id = ? AND id = ?", roomID, id).
		Delete(&MessageRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete message %s: %w", id, err)
	}
	return nil
}

func (s *GormMessageStore) DeleteNotIn(ctx context.Context, roomID string, keep []string) error {
	q := s.db.WithContext(ctx).Where("room_id = ?", roomID)
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	if err := q.Delete(&MessageRecord{}).Error; err != nil {
		return fmt.Errorf("failed to prune messages: %w", err)
	}
	return nil
}
