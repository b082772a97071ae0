package entity

// UploadStage is the coarse ingestion stage shown while a file uploads.
// The stages are client-side pacing only and do not reflect server progress.
type UploadStage int

const (
	UploadStageInactive UploadStage = iota
	UploadStageParsing
	UploadStageChunking
	UploadStageIndexing
)

func (s UploadStage) String() string {
	switch s {
	case UploadStageParsing:
		return "Parsing"
	case UploadStageChunking:
		return "Chunking"
	case UploadStageIndexing:
		return "Indexing"
	default:
		return "Inactive"
	}
}

// UploadStages lists the active stages in order.
var UploadStages = []UploadStage{UploadStageParsing, UploadStageChunking, UploadStageIndexing}

type UploadProgress struct {
	Filename string
	Stage    UploadStage
	Percent  int
}

// Active reports whether an upload is in flight.
func (p UploadProgress) Active() bool {
	return p.Stage != UploadStageInactive
}

type UploadStatus string

const (
	UploadStatusIndexed          UploadStatus = "indexed"
	UploadStatusValidationFailed UploadStatus = "validation_failed"
	UploadStatusIngestionFailed  UploadStatus = "ingestion_failed"
)

// UploadOutcome is the settled result of one file in a batch.
type UploadOutcome struct {
	Filename string
	Status   UploadStatus
	Document *Document
	Err      error
}
