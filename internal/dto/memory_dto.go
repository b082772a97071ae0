package dto

type MemoryDocumentResponse struct {
	Type    string `json:"type,omitempty"`
	Content string `json:"content"`
}
