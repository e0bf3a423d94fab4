package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DataKind is the declared content of an uploaded file.
type DataKind string

const (
	DataKindProducts  DataKind = "products"
	DataKindInventory DataKind = "inventory"
	DataKindSales     DataKind = "sales"
)

// ValidDataKind reports whether k is one of the supported upload kinds.
func ValidDataKind(k DataKind) bool {
	switch k {
	case DataKindProducts, DataKindInventory, DataKindSales:
		return true
	}
	return false
}

// UploadStatus is the lifecycle state of an UploadJob.
//
//	uploaded --(dispatch)--> processing --(done)--> completed
//	                                   \--(fatal)--> failed
//	failed/uploaded --(reset)--> uploaded
type UploadStatus string

const (
	UploadStatusUploaded   UploadStatus = "uploaded"
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusCompleted  UploadStatus = "completed"
	UploadStatusFailed     UploadStatus = "failed"
)

// UploadJob tracks one file submission through the ingestion pipeline.
// The data kind and warehouse override are persisted so a retry re-enters
// the pipeline with exactly the parameters of the original submission.
type UploadJob struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Filename string    `json:"filename" gorm:"type:varchar(255);not null"`
	FilePath string    `json:"filePath" gorm:"type:varchar(500);not null"`
	FileSize int64     `json:"fileSize"`

	ContentType string     `json:"contentType" gorm:"type:varchar(100)"`
	DataKind    DataKind   `json:"dataKind" gorm:"type:varchar(20);not null"`
	WarehouseID *uuid.UUID `json:"warehouseId,omitempty" gorm:"type:uuid"`

	Status           UploadStatus `json:"status" gorm:"type:varchar(20);not null;default:'uploaded';index:idx_uploads_status"`
	RecordsProcessed int          `json:"recordsProcessed" gorm:"not null;default:0"`
	ErrorMessage     *string      `json:"errorMessage,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"createdAt" gorm:"index:idx_uploads_created"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *UploadJob) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (UploadJob) TableName() string {
	return "data_uploads"
}

// Retryable reports whether the job may be reset and re-dispatched.
// Only jobs that never started or terminally failed are eligible.
func (u *UploadJob) Retryable() bool {
	return u.Status == UploadStatusFailed || u.Status == UploadStatusUploaded
}

// Response models

type UploadResponse struct {
	Success bool       `json:"success"`
	Data    *UploadJob `json:"data,omitempty"`
	Message *string    `json:"message,omitempty"`
}

type UploadListResponse struct {
	Success    bool            `json:"success"`
	Data       []UploadJob     `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}
