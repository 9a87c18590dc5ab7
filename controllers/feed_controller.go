package controllers

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"catalog-feed-service/fetcher"
	"catalog-feed-service/progress"
	"catalog-feed-service/services"
)

// FeedController handles HTTP requests for feed source management and
// ingestion.
type FeedController struct {
	ingestService   services.IngestService
	registryService services.RegistryService
	tracker         *progress.Tracker
	maxUploadBytes  int64
}

// NewFeedController creates a new FeedController.
func NewFeedController(ingest services.IngestService, registry services.RegistryService, tracker *progress.Tracker) *FeedController {
	return &FeedController{
		ingestService:   ingest,
		registryService: registry,
		tracker:         tracker,
		maxUploadBytes:  fetcher.MaxBodyBytes,
	}
}

// SetMaxUploadBytes overrides the default 50MB upload cap.
func (fc *FeedController) SetMaxUploadBytes(n int64) {
	fc.maxUploadBytes = n
}

type registerFeedRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// RegisterFeed handles POST /feeds. The source is registered synchronously;
// the first ingestion pass runs in the background and is observable through
// the progress stream.
func (fc *FeedController) RegisterFeed(ctx *gin.Context) {
	var req registerFeedRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	source, runID, svcErr := fc.ingestService.IngestFromURL(ctx.Request.Context(), req.URL)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{
		"source_id": source.ID,
		"run_id":    runID,
	})
}

// UploadFeed handles POST /feeds/upload. The file is ingested synchronously
// as an upsert pass with no source attribution.
func (fc *FeedController) UploadFeed(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "XML file is required"})
		return
	}
	defer file.Close() //nolint:errcheck

	if header.Size > fc.maxUploadBytes {
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File exceeds the upload size limit"})
		return
	}

	raw, err := io.ReadAll(io.LimitReader(file, fc.maxUploadBytes))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}

	result, svcErr := fc.ingestService.IngestUpload(ctx.Request.Context(), raw)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"result": result})
}

// StreamProgress handles GET /feeds/:id/progress as a Server-Sent Events
// stream, where :id is the run ID returned by RegisterFeed. One snapshot per
// second until the run finishes, fails, or the client disconnects. An
// unknown run closes the stream immediately.
func (fc *FeedController) StreamProgress(ctx *gin.Context) {
	runID := ctx.Param("id")

	ctx.Writer.Header().Set("Content-Type", "text/event-stream")
	ctx.Writer.Header().Set("Cache-Control", "no-cache")
	ctx.Writer.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		state, ok := fc.tracker.Get(runID)
		if !ok {
			return
		}

		ctx.SSEvent("progress", state)
		ctx.Writer.Flush()

		if state.Progress >= 100 || state.Failed {
			return
		}

		select {
		case <-ctx.Request.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// ListFeeds handles GET /feeds.
func (fc *FeedController) ListFeeds(ctx *gin.Context) {
	sources, svcErr := fc.registryService.List(ctx.Request.Context())
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"sources": sources})
}

// ToggleFeedStatus handles PATCH /feeds/:id/status.
func (fc *FeedController) ToggleFeedStatus(ctx *gin.Context) {
	id, err := parseSourceID(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source ID"})
		return
	}

	status, svcErr := fc.registryService.ToggleStatus(ctx.Request.Context(), id)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"id": id, "status": status})
}

// DeleteFeed handles DELETE /feeds/:id.
func (fc *FeedController) DeleteFeed(ctx *gin.Context) {
	id, err := parseSourceID(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source ID"})
		return
	}

	if svcErr := fc.registryService.Remove(ctx.Request.Context(), id); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Feed source deleted"})
}

func parseSourceID(ctx *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
