package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/use-agent/makemodel/extractor"
	"github.com/use-agent/makemodel/models"
	"github.com/use-agent/makemodel/webhook"
)

const (
	batchTTL          = time.Hour
	batchSweep        = 5 * time.Minute
	defaultBatchSlots = 5
)

type batchJob struct {
	mu        sync.Mutex
	id        string
	status    string
	total     int
	completed int
	failed    int
	results   []*models.ExtractResponse
	createdAt time.Time
}

func (j *batchJob) record(i int, resp *models.ExtractResponse) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.results[i] = resp
	j.completed++
	if !resp.Success {
		j.failed++
	}
}

func (j *batchJob) finish() models.BatchStatusResponse {
	j.mu.Lock()
	switch {
	case j.failed == j.total:
		j.status = "failed"
	case j.failed > 0:
		j.status = "partial"
	default:
		j.status = "completed"
	}
	j.mu.Unlock()
	return j.snapshot()
}

func (j *batchJob) snapshot() models.BatchStatusResponse {
	j.mu.Lock()
	defer j.mu.Unlock()
	results := make([]*models.ExtractResponse, len(j.results))
	copy(results, j.results)
	return models.BatchStatusResponse{
		ID:        j.id,
		Status:    j.status,
		Completed: j.completed,
		Total:     j.total,
		Results:   results,
	}
}

// BatchStore holds in-flight and finished batch jobs for an hour.
type BatchStore struct {
	jobs sync.Map
}

// NewBatchStore starts the expiry loop; it stops when ctx is done.
func NewBatchStore(ctx context.Context) *BatchStore {
	b := &BatchStore{}
	go func() {
		ticker := time.NewTicker(batchSweep)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				b.expire(now)
			}
		}
	}()
	return b
}

func (b *BatchStore) expire(now time.Time) {
	cutoff := now.Add(-batchTTL)
	b.jobs.Range(func(key, value any) bool {
		if value.(*batchJob).createdAt.Before(cutoff) {
			b.jobs.Delete(key)
		}
		return true
	})
}

// PostBatch returns a handler for POST /api/v1/batch/extract. URLs are
// extracted in the background, at most one per pooled browser page at a
// time.
func PostBatch(store *BatchStore, pages Pages, pipe *extractor.Pipeline, searchBase, webhookSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewExtractError(models.ErrCodeInvalidInput, err.Error(), err))
			return
		}

		job := &batchJob{
			id:        "batch-" + uuid.NewString(),
			status:    "processing",
			total:     len(req.URLs),
			results:   make([]*models.ExtractResponse, len(req.URLs)),
			createdAt: time.Now(),
		}
		store.jobs.Store(job.id, job)

		go runBatch(job, req, pages, pipe, searchBase, webhookSecret)

		c.JSON(http.StatusAccepted, models.BatchResponse{
			ID:     job.id,
			Status: "processing",
			Total:  job.total,
		})
	}
}

// GetBatch returns a handler for GET /api/v1/batch/:id.
func GetBatch(store *BatchStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		val, ok := store.jobs.Load(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, models.ErrorBody(models.ErrCodeInvalidInput, "batch job not found"))
			return
		}
		c.JSON(http.StatusOK, val.(*batchJob).snapshot())
	}
}

func runBatch(job *batchJob, req models.BatchRequest, pages Pages, pipe *extractor.Pipeline, searchBase, webhookSecret string) {
	slots := defaultBatchSlots
	if pages != nil {
		if n := pages.Stats().MaxPages; n > 0 {
			slots = n
		}
	}
	sem := make(chan struct{}, slots)

	var wg sync.WaitGroup
	for i, rawURL := range req.URLs {
		wg.Add(1)
		go func(idx int, target string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			job.record(idx, extractOne(pages, pipe, req.Options.ToExtractRequest(target), searchBase))
		}(i, rawURL)
	}
	wg.Wait()

	status := job.finish()
	slog.Info("batch job finished",
		"id", status.ID,
		"status", status.Status,
		"completed", status.Completed,
		"total", status.Total,
	)

	if req.WebhookURL != "" {
		webhook.DeliverAsync(req.WebhookURL, webhookSecret,
			webhook.NewEvent(webhook.EventBatchCompleted, status.ID, status))
	}
}

// extractOne fetches and extracts one batch URL. Failures become an
// unsuccessful response rather than an error.
func extractOne(pages Pages, pipe *extractor.Pipeline, req *models.ExtractRequest, searchBase string) *models.ExtractResponse {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(req.Timeout)*time.Second)
	defer cancel()

	fail := func(err error) *models.ExtractResponse {
		return &models.ExtractResponse{
			Success: false,
			Error:   asExtractError(err).ToDetail(),
			Timing:  models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
		}
	}

	page, err := loadPage(ctx, pages, req)
	if err != nil {
		return fail(err)
	}
	resp, _, err := extractPage(pipe, page, req.CSSSelector, searchBase)
	if err != nil {
		return fail(err)
	}
	resp.Timing.TotalMs = time.Since(start).Milliseconds()
	return resp
}
