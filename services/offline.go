package services

import (
	"context"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/tutoo-mr/tutoo_core/dto"
	"github.com/tutoo-mr/tutoo_core/model"
	"github.com/tutoo-mr/tutoo_core/shared"
)

// SyncClient is the slice of the API client the offline store needs to
// flush its queue. Narrowed to an interface so tests can run a fake.
type SyncClient interface {
	SyncUpdates(ctx context.Context, updates []model.ProgressUpdate) (*dto.SyncResponse, error)
}

// OfflineService keeps lessons usable with no connectivity: a bounded
// course cache, an append-only progress log, and a pending-sync queue
// flushed with at-least-once semantics. The server deduplicates by event
// id, so a crash between "server accepted" and "queue cleared" only causes
// a harmless re-delivery.
type OfflineService struct {
	appContext.DefaultService

	sqlSvc  *SqliteService
	connSvc *ConnectivityService
}

const OFFLINE_SVC = "offline_svc"

func (svc OfflineService) Id() string {
	return OFFLINE_SVC
}

func (svc *OfflineService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *OfflineService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	svc.connSvc = svc.Service(CONNECTIVITY_SVC).(*ConnectivityService)
	return nil
}

// ==================== COURSE CACHE ====================

// StoreCoursesOffline persists a bounded, stripped copy of the course list.
// Video references are dropped before writing, the cache is for lesson
// structure and quiz content, not media.
func (svc *OfflineService) StoreCoursesOffline(courses []model.Course) error {
	if len(courses) > shared.MaxOfflineCourses {
		courses = courses[:shared.MaxOfflineCourses]
	}

	cached := make([]model.CachedCourse, 0, len(courses))
	now := time.Now()

	for _, course := range courses {
		stripped := course
		stripped.Lessons = make([]model.Lesson, len(course.Lessons))
		for i, lesson := range course.Lessons {
			lesson.VideoURL = ""
			stripped.Lessons[i] = lesson
		}

		payload, err := shared.JSONMarshal(stripped)
		if err != nil {
			return err
		}

		cached = append(cached, model.CachedCourse{
			ID:       course.ID,
			Subject:  course.Subject,
			Title:    course.Title,
			Payload:  payload,
			Size:     len(payload),
			CachedAt: now,
		})
	}

	return svc.sqlSvc.ReplaceCachedCourses(cached)
}

func (svc *OfflineService) OfflineCourses(subject string) ([]model.Course, error) {
	cached, err := svc.sqlSvc.CachedCourses(subject)
	if err != nil {
		return nil, err
	}

	courses := make([]model.Course, 0, len(cached))
	for _, entry := range cached {
		var course model.Course
		if err := shared.JSONUnmarshal(entry.Payload, &course); err != nil {
			log.WithError(err).WithField("course_id", entry.ID).Warn("Dropping unreadable cached course")
			continue
		}
		courses = append(courses, course)
	}

	return courses, nil
}

// ==================== PROGRESS QUEUE ====================

// StoreProgressOffline appends the event to the all-time log and the
// pending queue in one write. Append-only until a sync succeeds.
func (svc *OfflineService) StoreProgressOffline(update model.ProgressUpdate) error {
	record := &model.ProgressRecord{
		EventID:   update.EventID,
		LessonID:  update.LessonID,
		Completed: update.Completed,
		Stars:     update.Stars,
		TimeSpent: update.TimeSpent,
		XPEarned:  update.XPEarned,
		Pending:   true,
		CreatedAt: update.Timestamp,
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	return svc.sqlSvc.AppendProgress(record)
}

func (svc *OfflineService) PendingSync() ([]model.ProgressUpdate, error) {
	records, err := svc.sqlSvc.PendingProgress()
	if err != nil {
		return nil, err
	}
	return toUpdates(records), nil
}

func (svc *OfflineService) ProgressLog() ([]model.ProgressUpdate, error) {
	records, err := svc.sqlSvc.AllProgress()
	if err != nil {
		return nil, err
	}
	return toUpdates(records), nil
}

func toUpdates(records []model.ProgressRecord) []model.ProgressUpdate {
	updates := make([]model.ProgressUpdate, len(records))
	for i := range records {
		updates[i] = records[i].ToUpdate()
	}
	return updates
}

// SyncPendingData flushes the whole pending queue in one batch. On success
// the queue is cleared and lastSync stamped; on failure the queue is left
// untouched for the next connectivity-regained signal or explicit retry.
func (svc *OfflineService) SyncPendingData(ctx context.Context, remote SyncClient) (bool, error) {
	pending, err := svc.PendingSync()
	if err != nil {
		return false, err
	}
	if len(pending) == 0 {
		return true, nil
	}

	if _, err := remote.SyncUpdates(ctx, pending); err != nil {
		log.WithError(err).WithField("pending", len(pending)).Warn("Sync failed, queue kept")
		return false, err
	}

	eventIDs := make([]string, len(pending))
	for i, update := range pending {
		eventIDs[i] = update.EventID
	}

	now := time.Now()
	if err := svc.sqlSvc.MarkSynced(eventIDs, now); err != nil {
		// Server already accepted the batch; the events stay pending and
		// will be re-delivered. Idempotent ingestion makes that safe.
		return false, err
	}

	if err := svc.sqlSvc.SetSetting(shared.SettingLastSync, now.Format(time.RFC3339)); err != nil {
		log.WithError(err).Warn("Failed to stamp last sync time")
	}

	log.WithField("synced", len(pending)).Info("Offline progress synced")
	return true, nil
}

// CleanupOldData prunes synced history older than the retention window.
// Pending events are never dropped.
func (svc *OfflineService) CleanupOldData() error {
	cutoff := time.Now().AddDate(0, 0, -shared.OfflineRetentionDays)
	return svc.sqlSvc.DeleteSyncedBefore(cutoff)
}

// ==================== STORAGE BUDGET ====================

// GetStorageInfo reports course-cache usage against the fixed quota so
// callers can throttle what they cache.
func (svc *OfflineService) GetStorageInfo() (*dto.StorageInfo, error) {
	used, err := svc.sqlSvc.CacheSize()
	if err != nil {
		return nil, err
	}

	info := &dto.StorageInfo{
		Used:       used,
		Available:  shared.OfflineQuotaBytes - used,
		Percentage: float64(used) / float64(shared.OfflineQuotaBytes) * 100,
	}
	if info.Available < 0 {
		info.Available = 0
	}
	return info, nil
}

// ShouldLoadHighQuality is an advisory signal: cache headroom plus a live
// connection. Never a hard gate on content.
func (svc *OfflineService) ShouldLoadHighQuality() bool {
	info, err := svc.GetStorageInfo()
	if err != nil {
		return false
	}
	return info.Percentage < 80 && svc.connSvc.IsOnline()
}
