package constant

const (
	ChatFallbackMessage = "Something went wrong. Please try again."

	NotifyUnsupportedFile = "Unsupported file: %s. Use PDF, MD, or TXT."
	NotifyIndexed         = "Indexed %s (%d chunks)"
	NotifyUploadFailed    = "Upload failed: %s"
	NotifyRemoved         = "Removed %s"
	NotifyDeleteFailed    = "Failed to delete document"
	NotifyResetDone       = "All data cleared. Fresh start!"
	NotifyResetFailed     = "Failed to reset. Try again."
)

// AllowedUploadExtensions is checked case-insensitively before any request is sent.
var AllowedUploadExtensions = []string{"pdf", "md", "txt"}

// Upload progress checkpoints per stage.
const (
	ProgressParsing  = 15
	ProgressChunking = 50
	ProgressIndexing = 80
	ProgressDone     = 100
)

// SuggestedPrompts are offered on an empty conversation.
var SuggestedPrompts = []string{
	"What are the main topics in my docs?",
	"Weather in Tokyo today",
	"Summarize my uploaded files",
}
