package services

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tutoo-mr/tutoo_core/model"
	"github.com/tutoo-mr/tutoo_core/shared"
)

// SqliteService is the durable embedded store. On the client it holds the
// settings cells, the offline progress log and the course cache; the dev
// backend reuses it for its own tables so the whole repo runs without any
// external service.
type SqliteService struct {
	context.DefaultService
	db *gorm.DB

	database string

	// Guards the pending queue so an append cannot interleave with a
	// clear from a concurrent event.
	queueMu sync.Mutex
}

const SQLITE_SVC = "sqlite_svc"

// Id returns Service ID
func (ds SqliteService) Id() string {
	return SQLITE_SVC
}

// Db Access to raw SqliteService db
func (ds SqliteService) Db() *gorm.DB {
	return ds.db
}

// Configure the service
func (ds *SqliteService) Configure(ctx *context.Context) error {
	ds.database = os.Getenv("TUTOO_DB")
	if ds.database == "" {
		ds.database = "tutoo.db"
	}

	return ds.DefaultService.Configure(ctx)
}

// Start the service and open connection to the database
// Migrate any tables that have changed since last runtime
func (ds *SqliteService) Start() (err error) {
	ds.db, err = gorm.Open(sqlite.Open(ds.database), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return err
	}

	models := []interface{}{
		&model.Setting{},
		&model.ProgressRecord{},
		&model.CachedCourse{},
		&model.User{},
		&model.ProfileRecord{},
		&model.ProgressEntry{},
		&model.CourseRecord{},
		&model.Conversation{},
	}

	err = ds.db.AutoMigrate(models...)
	if err != nil {
		log.WithError(err).Error("Failed to migrate database")
		return err
	}

	return nil
}

func (ds *SqliteService) Shutdown() {
}

// ==================== SETTINGS (LWW CELLS) ====================

func (ds *SqliteService) GetSetting(key string) (string, error) {
	var setting model.Setting
	err := ds.db.First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

func (ds *SqliteService) SetSetting(key, value string) error {
	setting := model.Setting{Key: key, Value: value, UpdatedAt: time.Now()}
	return ds.db.Save(&setting).Error
}

func (ds *SqliteService) DeleteSettings(keys ...string) error {
	return ds.db.Delete(&model.Setting{}, "key IN ?", keys).Error
}

// ==================== PROGRESS LOG AND SYNC QUEUE ====================

func (ds *SqliteService) AppendProgress(record *model.ProgressRecord) error {
	ds.queueMu.Lock()
	defer ds.queueMu.Unlock()

	return ds.db.Create(record).Error
}

func (ds *SqliteService) PendingProgress() ([]model.ProgressRecord, error) {
	var records []model.ProgressRecord
	err := ds.db.Where("pending = ?", true).Order("created_at ASC").Find(&records).Error
	return records, err
}

func (ds *SqliteService) AllProgress() ([]model.ProgressRecord, error) {
	var records []model.ProgressRecord
	err := ds.db.Order("created_at ASC").Find(&records).Error
	return records, err
}

func (ds *SqliteService) CountPending() (int64, error) {
	var count int64
	err := ds.db.Model(&model.ProgressRecord{}).Where("pending = ?", true).Count(&count).Error
	return count, err
}

// MarkSynced clears the pending flag for the given events in one
// transaction, keeping the rows as history.
func (ds *SqliteService) MarkSynced(eventIDs []string, at time.Time) error {
	if len(eventIDs) == 0 {
		return nil
	}

	ds.queueMu.Lock()
	defer ds.queueMu.Unlock()

	return ds.db.Model(&model.ProgressRecord{}).
		Where("event_id IN ?", eventIDs).
		Updates(map[string]interface{}{"pending": false, "synced_at": at}).Error
}

// DeleteSyncedBefore prunes already-synced history older than the cutoff.
// Pending rows are never pruned.
func (ds *SqliteService) DeleteSyncedBefore(cutoff time.Time) error {
	ds.queueMu.Lock()
	defer ds.queueMu.Unlock()

	return ds.db.Delete(&model.ProgressRecord{},
		"pending = ? AND created_at < ?", false, cutoff).Error
}

// ==================== COURSE CACHE ====================

func (ds *SqliteService) ReplaceCachedCourses(courses []model.CachedCourse) error {
	return ds.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.CachedCourse{}).Error; err != nil {
			return err
		}
		if len(courses) == 0 {
			return nil
		}
		return tx.Create(&courses).Error
	})
}

func (ds *SqliteService) CachedCourses(subject string) ([]model.CachedCourse, error) {
	var courses []model.CachedCourse
	query := ds.db.Order("cached_at DESC")
	if subject != "" {
		query = query.Where("subject = ?", subject)
	}
	err := query.Find(&courses).Error
	return courses, err
}

func (ds *SqliteService) CacheSize() (int64, error) {
	var size *int64
	err := ds.db.Model(&model.CachedCourse{}).Select("SUM(size)").Scan(&size).Error
	if err != nil || size == nil {
		return 0, err
	}
	return *size, nil
}

// ==================== ERROR MAPPING ====================

func (ds *SqliteService) HandleError(err error) error {
	if err == nil {
		return nil
	}

	var statusCode int
	var errorType string

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		statusCode = http.StatusNotFound
		errorType = "NOT_FOUND"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		statusCode = http.StatusConflict
		errorType = "CONFLICT"
	case errors.Is(err, gorm.ErrInvalidTransaction):
		statusCode = http.StatusInternalServerError
		errorType = "TRANSACTION_ERROR"
	default:
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			statusCode = http.StatusConflict
			errorType = "UNIQUE_CONSTRAINT"
		} else {
			statusCode = http.StatusInternalServerError
			errorType = "INTERNAL_ERROR"
		}
	}

	log.WithFields(log.Fields{
		"error_type": errorType,
		"error":      err.Error(),
	}).Error("Database error")

	return &shared.AppError{StatusCode: statusCode, Message: errorType, Err: err}
}
