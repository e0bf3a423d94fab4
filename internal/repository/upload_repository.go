package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ainventory-service/internal/models"
)

// ErrInvalidTransition is returned when an upload status update races with
// another worker or targets a job in the wrong state.
var ErrInvalidTransition = errors.New("invalid upload status transition")

type UploadRepository struct {
	db *gorm.DB
}

func NewUploadRepository(db *gorm.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

func (r *UploadRepository) Create(job *models.UploadJob) error {
	if job.Status == "" {
		job.Status = models.UploadStatusUploaded
	}
	return r.db.Create(job).Error
}

func (r *UploadRepository) GetByID(id uuid.UUID) (*models.UploadJob, error) {
	var job models.UploadJob
	if err := r.db.First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// List returns upload jobs newest first, optionally filtered by status.
func (r *UploadRepository) List(status *models.UploadStatus, page, limit int) ([]models.UploadJob, int64, error) {
	query := r.db.Model(&models.UploadJob{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var jobs []models.UploadJob
	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&jobs).Error; err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// MarkProcessing moves a job from uploaded to processing. The transition is
// guarded in SQL so two workers cannot pick up the same job.
func (r *UploadRepository) MarkProcessing(job *models.UploadJob) error {
	res := r.db.Model(&models.UploadJob{}).
		Where("id = ? AND status = ?", job.ID, models.UploadStatusUploaded).
		Update("status", models.UploadStatusProcessing)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: job %s is not in uploaded state", ErrInvalidTransition, job.ID)
	}
	job.Status = models.UploadStatusProcessing
	return nil
}

// MarkCompleted finishes a processing job and records how many rows were
// committed. Any earlier failure message is cleared.
func (r *UploadRepository) MarkCompleted(job *models.UploadJob, recordsProcessed int) error {
	res := r.db.Model(&models.UploadJob{}).
		Where("id = ? AND status = ?", job.ID, models.UploadStatusProcessing).
		Updates(map[string]interface{}{
			"status":            models.UploadStatusCompleted,
			"records_processed": recordsProcessed,
			"error_message":     nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: job %s is not in processing state", ErrInvalidTransition, job.ID)
	}
	job.Status = models.UploadStatusCompleted
	job.RecordsProcessed = recordsProcessed
	job.ErrorMessage = nil
	return nil
}

// MarkFailed records a fatal batch error on a processing job.
func (r *UploadRepository) MarkFailed(job *models.UploadJob, message string) error {
	res := r.db.Model(&models.UploadJob{}).
		Where("id = ? AND status = ?", job.ID, models.UploadStatusProcessing).
		Updates(map[string]interface{}{
			"status":        models.UploadStatusFailed,
			"error_message": message,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: job %s is not in processing state", ErrInvalidTransition, job.ID)
	}
	job.Status = models.UploadStatusFailed
	job.ErrorMessage = &message
	return nil
}

// Reset rewinds a failed or never-started job back to uploaded so it can be
// dispatched again. Counters and the error message are cleared.
func (r *UploadRepository) Reset(job *models.UploadJob) error {
	res := r.db.Model(&models.UploadJob{}).
		Where("id = ? AND status IN ?", job.ID, []models.UploadStatus{models.UploadStatusFailed, models.UploadStatusUploaded}).
		Updates(map[string]interface{}{
			"status":            models.UploadStatusUploaded,
			"records_processed": 0,
			"error_message":     nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: job %s is not retryable", ErrInvalidTransition, job.ID)
	}
	job.Status = models.UploadStatusUploaded
	job.RecordsProcessed = 0
	job.ErrorMessage = nil
	return nil
}

func (r *UploadRepository) Delete(id uuid.UUID) error {
	res := r.db.Delete(&models.UploadJob{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
