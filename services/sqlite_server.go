package services

import (
	"time"

	"gorm.io/gorm/clause"

	"github.com/tutoo-mr/tutoo_core/model"
)

// Dev-backend repositories. Kept on the sqlite service so handlers reach
// storage the same way the client-side stores do.

// ==================== USERS ====================

func (ds *SqliteService) CreateUser(user *model.User) error {
	return ds.db.Create(user).Error
}

func (ds *SqliteService) GetUserByEmail(email string) (*model.User, error) {
	var user model.User
	err := ds.db.Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (ds *SqliteService) GetUserByID(id string) (*model.User, error) {
	var user model.User
	err := ds.db.First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (ds *SqliteService) TouchLastLogin(userID string) error {
	return ds.db.Model(&model.User{}).Where("id = ?", userID).
		Update("last_login", time.Now()).Error
}

// ==================== PROFILES ====================

func (ds *SqliteService) SaveProfile(record *model.ProfileRecord) error {
	record.UpdatedAt = time.Now()
	return ds.db.Save(record).Error
}

func (ds *SqliteService) GetProfile(userID string) (*model.ProfileRecord, error) {
	var record model.ProfileRecord
	err := ds.db.First(&record, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ==================== PROGRESS ====================

// InsertProgressEntry ingests one event, returning false when the event id
// is already known. Duplicate delivery is expected from offline clients.
func (ds *SqliteService) InsertProgressEntry(entry *model.ProgressEntry) (bool, error) {
	result := ds.db.Clauses(clause.OnConflict{DoNothing: true}).Create(entry)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (ds *SqliteService) ProgressByUser(userID string) ([]model.ProgressEntry, error) {
	var entries []model.ProgressEntry
	err := ds.db.Where("user_id = ?", userID).
		Order("timestamp DESC").Find(&entries).Error
	return entries, err
}

func (ds *SqliteService) ProgressSince(userID string, since time.Time) ([]model.ProgressEntry, error) {
	var entries []model.ProgressEntry
	err := ds.db.Where("user_id = ? AND timestamp >= ?", userID, since).
		Order("timestamp DESC").Find(&entries).Error
	return entries, err
}

// ==================== COURSES ====================

func (ds *SqliteService) CreateCourseRecord(record *model.CourseRecord) error {
	return ds.db.Create(record).Error
}

func (ds *SqliteService) CourseRecords(subject string) ([]model.CourseRecord, error) {
	var records []model.CourseRecord
	query := ds.db.Order("created_at ASC")
	if subject != "" {
		query = query.Where("subject = ?", subject)
	}
	err := query.Find(&records).Error
	return records, err
}

// ==================== CONVERSATIONS ====================

func (ds *SqliteService) SaveConversation(conversation *model.Conversation) error {
	return ds.db.Create(conversation).Error
}
