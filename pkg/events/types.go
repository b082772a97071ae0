package events

const (
	UploadProgress     = "UPLOAD_PROGRESS"
	DocumentIngested   = "DOCUMENT_INGESTED"
	DocumentRemoved    = "DOCUMENT_REMOVED"
	CatalogRefreshed   = "CATALOG_REFRESHED"
	ChatTurnCompleted  = "CHAT_TURN_COMPLETED"
	MemoryFeedChanged  = "MEMORY_FEED_CHANGED"
	MemoryMirrorSynced = "MEMORY_MIRROR_SYNCED"
	SessionReset       = "SESSION_RESET"
	Notification       = "NOTIFICATION"
)

// MetadataType is the watermill metadata key carrying the event type.
const MetadataType = "event_type"
