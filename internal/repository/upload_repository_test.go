package repository

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ainventory-service/internal/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.UploadJob{}))
	return db
}

func newJob(t *testing.T, repo *UploadRepository) *models.UploadJob {
	t.Helper()
	job := &models.UploadJob{
		Filename: "products.csv",
		FilePath: "/tmp/products.csv",
		DataKind: models.DataKindProducts,
	}
	require.NoError(t, repo.Create(job))
	require.Equal(t, models.UploadStatusUploaded, job.Status)
	return job
}

func TestUploadLifecycle_HappyPath(t *testing.T) {
	repo := NewUploadRepository(setupDB(t))
	job := newJob(t, repo)

	require.NoError(t, repo.MarkProcessing(job))
	require.Equal(t, models.UploadStatusProcessing, job.Status)

	require.NoError(t, repo.MarkCompleted(job, 42))
	require.Equal(t, models.UploadStatusCompleted, job.Status)
	require.Equal(t, 42, job.RecordsProcessed)

	stored, err := repo.GetByID(job.ID)
	require.NoError(t, err)
	require.Equal(t, models.UploadStatusCompleted, stored.Status)
	require.Equal(t, 42, stored.RecordsProcessed)
	require.Nil(t, stored.ErrorMessage)
}

func TestUploadLifecycle_FailureAndReset(t *testing.T) {
	repo := NewUploadRepository(setupDB(t))
	job := newJob(t, repo)

	require.NoError(t, repo.MarkProcessing(job))
	require.NoError(t, repo.MarkFailed(job, "file could not be read"))
	require.Equal(t, models.UploadStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)

	require.NoError(t, repo.Reset(job))
	require.Equal(t, models.UploadStatusUploaded, job.Status)
	require.Nil(t, job.ErrorMessage)
	require.Equal(t, 0, job.RecordsProcessed)

	stored, err := repo.GetByID(job.ID)
	require.NoError(t, err)
	require.Equal(t, models.UploadStatusUploaded, stored.Status)
	require.Nil(t, stored.ErrorMessage)
}

func TestUploadLifecycle_GuardedTransitions(t *testing.T) {
	repo := NewUploadRepository(setupDB(t))
	job := newJob(t, repo)

	// Two workers race for the same job; only one wins.
	require.NoError(t, repo.MarkProcessing(job))
	require.ErrorIs(t, repo.MarkProcessing(job), ErrInvalidTransition)

	require.NoError(t, repo.MarkCompleted(job, 1))
	require.ErrorIs(t, repo.MarkFailed(job, "too late"), ErrInvalidTransition)
	require.ErrorIs(t, repo.Reset(job), ErrInvalidTransition)
}

func TestUploadList_FiltersByStatus(t *testing.T) {
	repo := NewUploadRepository(setupDB(t))

	first := newJob(t, repo)
	require.NoError(t, repo.MarkProcessing(first))
	require.NoError(t, repo.MarkFailed(first, "boom"))
	newJob(t, repo)
	newJob(t, repo)

	all, total, err := repo.List(nil, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, all, 3)

	failed := models.UploadStatusFailed
	jobs, total, err := repo.List(&failed, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, first.ID, jobs[0].ID)

	jobs, total, err = repo.List(nil, 2, 2)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, jobs, 1)
}

func TestUploadDelete(t *testing.T) {
	repo := NewUploadRepository(setupDB(t))
	job := newJob(t, repo)

	require.NoError(t, repo.Delete(job.ID))
	_, err := repo.GetByID(job.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.ErrorIs(t, repo.Delete(uuid.New()), gorm.ErrRecordNotFound)
}
