// Package notification stores and serves role-targeted in-app
// notifications.
package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/khiari-mohamed/ARS-sub010/internal/config"
	"github.com/khiari-mohamed/ARS-sub010/internal/models"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Notify persists a notification for its target role.
func (s *Service) Notify(n *models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if err := s.db.Create(n).Error; err != nil {
		return err
	}
	config.Logger().WithFields(map[string]any{
		"role": n.Role,
		"type": n.Type,
	}).Info(n.Title)
	return nil
}

// ListByRole returns a role's notifications, newest first.
func (s *Service) ListByRole(role string, unreadOnly bool) ([]models.Notification, error) {
	q := s.db.Where("role = ?", role)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	var out []models.Notification
	err := q.Order("created_at DESC").Limit(200).Find(&out).Error
	return out, err
}

// MarkRead flags one notification as read.
func (s *Service) MarkRead(id uuid.UUID) error {
	return s.db.Model(&models.Notification{}).Where("id = ?", id).Update("read", true).Error
}
