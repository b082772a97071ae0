package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ai-knowledge-client/internal/constant"
	"ai-knowledge-client/internal/entity"
	"ai-knowledge-client/internal/mapper"
	"ai-knowledge-client/internal/pkg/logger"
	"ai-knowledge-client/pkg/assistant"
	"ai-knowledge-client/pkg/events"
)

var ErrUnsupportedFileType = errors.New("unsupported file type")

// IUploadService drives per-file ingestion and document deletion.
type IUploadService interface {
	UploadFiles(ctx context.Context, files []entity.FileHandle) []entity.UploadOutcome
	DeleteDocument(ctx context.Context, id string) error
	Progress() entity.UploadProgress
	Busy() bool
}

// UploadPacing spaces out the synthetic stage transitions. The delays are a UI
// affordance; real ingestion happens entirely inside the upload request.
type UploadPacing struct {
	Parse  time.Duration
	Chunk  time.Duration
	Settle time.Duration
}

type uploadService struct {
	api       assistant.API
	catalog   ICatalogService
	publisher IPublisherService
	notifier  INotificationService
	logger    logger.ILogger
	mapper    *mapper.DocumentMapper
	pacing    UploadPacing

	// batchMu keeps batches from interleaving stage transitions.
	batchMu sync.Mutex

	mu       sync.RWMutex
	progress entity.UploadProgress
	busy     bool
}

func NewUploadService(
	api assistant.API,
	catalog ICatalogService,
	publisher IPublisherService,
	notifier INotificationService,
	log logger.ILogger,
	pacing UploadPacing,
) IUploadService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &uploadService{
		api:       api,
		catalog:   catalog,
		publisher: publisher,
		notifier:  notifier,
		logger:    log,
		mapper:    mapper.NewDocumentMapper(),
		pacing:    pacing,
	}
}

// UploadFiles processes files strictly one after another. A failure on one file
// never affects its siblings.
func (us *uploadService) UploadFiles(ctx context.Context, files []entity.FileHandle) []entity.UploadOutcome {
	us.batchMu.Lock()
	defer us.batchMu.Unlock()

	us.setBusy(true)
	defer us.setBusy(false)

	outcomes := make([]entity.UploadOutcome, 0, len(files))
	for _, file := range files {
		outcomes = append(outcomes, us.uploadOne(ctx, file))
	}
	return outcomes
}

func (us *uploadService) uploadOne(ctx context.Context, file entity.FileHandle) entity.UploadOutcome {
	name := file.Name()

	if !IsAllowedUpload(name) {
		us.logger.Warn("UPLOAD", "Rejected file with unsupported extension", map[string]interface{}{"file": name})
		us.notifier.Error(ctx, fmt.Sprintf(constant.NotifyUnsupportedFile, name))
		return entity.UploadOutcome{
			Filename: name,
			Status:   entity.UploadStatusValidationFailed,
			Err:      fmt.Errorf("%w: %s", ErrUnsupportedFileType, name),
		}
	}

	defer us.settle(ctx, name)

	doc, contacted, err := us.ingest(ctx, file)

	// Reconcile with the service after every attempt that reached it.
	if contacted {
		_ = us.catalog.Refresh(ctx)
	}

	if err != nil {
		us.logger.Error("UPLOAD", "Upload failed", map[string]interface{}{"file": name, "error": err.Error()})
		us.notifier.Error(ctx, fmt.Sprintf(constant.NotifyUploadFailed, assistant.DetailOf(err)))
		return entity.UploadOutcome{Filename: name, Status: entity.UploadStatusIngestionFailed, Err: err}
	}

	return entity.UploadOutcome{Filename: name, Status: entity.UploadStatusIndexed, Document: &doc}
}

func (us *uploadService) ingest(ctx context.Context, file entity.FileHandle) (entity.Document, bool, error) {
	name := file.Name()

	us.advance(ctx, name, entity.UploadStageParsing, constant.ProgressParsing)
	if err := sleepContext(ctx, us.pacing.Parse); err != nil {
		return entity.Document{}, false, err
	}

	us.advance(ctx, name, entity.UploadStageChunking, constant.ProgressChunking)
	if err := sleepContext(ctx, us.pacing.Chunk); err != nil {
		return entity.Document{}, false, err
	}

	us.advance(ctx, name, entity.UploadStageIndexing, constant.ProgressIndexing)

	content, err := file.Open()
	if err != nil {
		return entity.Document{}, false, fmt.Errorf("open %s: %w", name, err)
	}
	defer content.Close()

	res, err := us.api.UploadDocument(ctx, name, content)
	if err != nil {
		return entity.Document{}, true, err
	}

	us.advance(ctx, name, entity.UploadStageIndexing, constant.ProgressDone)
	// The reply is already in; a cancelled hold must not turn it into a failure.
	_ = sleepContext(ctx, us.pacing.Settle)

	doc := us.mapper.UploadToEntity(res)
	if doc.Filename == "" {
		doc.Filename = name
	}

	us.catalog.Insert(doc)
	us.publisher.Publish(ctx, events.New(events.DocumentIngested, map[string]interface{}{
		"id":        doc.Id,
		"filename":  doc.Filename,
		"file_type": doc.FileType,
		"chunks":    doc.Chunks,
	}))
	us.logger.Info("UPLOAD", "Document indexed", map[string]interface{}{"id": doc.Id, "file": doc.Filename, "chunks": doc.Chunks})
	us.notifier.Success(ctx, fmt.Sprintf(constant.NotifyIndexed, name, doc.Chunks))

	return doc, true, nil
}

func (us *uploadService) DeleteDocument(ctx context.Context, id string) error {
	filename := id
	if doc, ok := us.catalog.Find(id); ok {
		filename = doc.Filename
	}

	if err := us.api.DeleteDocument(ctx, id); err != nil {
		us.logger.Error("UPLOAD", "Delete failed", map[string]interface{}{"id": id, "error": err.Error()})
		us.notifier.Error(ctx, constant.NotifyDeleteFailed)
		return fmt.Errorf("delete document %s: %w", id, err)
	}

	us.catalog.Remove(id)
	us.publisher.Publish(ctx, events.New(events.DocumentRemoved, map[string]interface{}{"id": id}))
	us.notifier.Success(ctx, fmt.Sprintf(constant.NotifyRemoved, filename))

	_ = us.catalog.Refresh(ctx)
	return nil
}

func (us *uploadService) Progress() entity.UploadProgress {
	us.mu.RLock()
	defer us.mu.RUnlock()
	return us.progress
}

func (us *uploadService) Busy() bool {
	us.mu.RLock()
	defer us.mu.RUnlock()
	return us.busy
}

func (us *uploadService) setBusy(busy bool) {
	us.mu.Lock()
	us.busy = busy
	us.mu.Unlock()
}

// advance moves the progress forward; stage and percent never go backwards
// within one upload.
func (us *uploadService) advance(ctx context.Context, filename string, stage entity.UploadStage, percent int) {
	us.mu.Lock()
	cur := us.progress
	if cur.Active() && (stage < cur.Stage || percent < cur.Percent) {
		us.mu.Unlock()
		us.logger.Warn("UPLOAD", "Ignored backwards progress", map[string]interface{}{"from": cur.Stage.String(), "to": stage.String()})
		return
	}
	us.progress = entity.UploadProgress{Filename: filename, Stage: stage, Percent: percent}
	us.mu.Unlock()

	us.publishProgress(ctx, filename, stage, percent)
}

func (us *uploadService) settle(ctx context.Context, filename string) {
	us.mu.Lock()
	us.progress = entity.UploadProgress{}
	us.mu.Unlock()

	us.publishProgress(ctx, filename, entity.UploadStageInactive, 0)
}

func (us *uploadService) publishProgress(ctx context.Context, filename string, stage entity.UploadStage, percent int) {
	us.publisher.Publish(ctx, events.New(events.UploadProgress, map[string]interface{}{
		"filename": filename,
		"stage":    stage.String(),
		"percent":  percent,
	}))
}

// IsAllowedUpload checks the extension against pdf, md and txt, ignoring case.
func IsAllowedUpload(filename string) bool {
	ext := mapper.FileExtension(filename)
	for _, allowed := range constant.AllowedUploadExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
