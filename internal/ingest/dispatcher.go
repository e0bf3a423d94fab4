package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ainventory-service/internal/models"
	"ainventory-service/internal/repository"
)

// Dispatcher runs upload jobs asynchronously, one goroutine per job. The
// HTTP layer hands a persisted job over and returns immediately; clients
// observe progress through the job status.
type Dispatcher struct {
	processor *Processor
	uploads   *repository.UploadRepository
	timeout   time.Duration
	logger    *logrus.Entry

	wg sync.WaitGroup
}

func NewDispatcher(processor *Processor, uploads *repository.UploadRepository, timeout time.Duration, logger *logrus.Logger) *Dispatcher {
	log := logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{
		processor: processor,
		uploads:   uploads,
		timeout:   timeout,
		logger:    log.WithField("component", "dispatcher"),
	}
}

// Submit schedules a persisted job for background processing.
func (d *Dispatcher) Submit(job *models.UploadJob) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(job)
	}()
}

// Retry rewinds a failed or never-started job to uploaded and schedules it
// again with its original data kind and warehouse override.
func (d *Dispatcher) Retry(id uuid.UUID) (*models.UploadJob, error) {
	job, err := d.uploads.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !job.Retryable() {
		return nil, fmt.Errorf("%w: status is %s", ErrJobNotRetryable, job.Status)
	}
	if err := d.uploads.Reset(job); err != nil {
		return nil, err
	}
	d.Submit(job)
	return job, nil
}

// Wait blocks until all in-flight jobs finish. Used on shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(job *models.UploadJob) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if _, err := d.processor.Process(ctx, job); err != nil {
		d.logger.WithFields(logrus.Fields{
			"uploadId": job.ID,
			"dataKind": job.DataKind,
		}).WithError(err).Error("Background upload processing failed")
	}
}
