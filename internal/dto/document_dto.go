package dto

type DocumentResponse struct {
	Id         string `json:"id"`
	Filename   string `json:"filename"`
	FileType   string `json:"file_type"`
	Chunks     int    `json:"chunks"`
	UploadedAt string `json:"uploaded_at,omitempty"`
}

// UploadDocumentResponse is returned by POST /upload. Some service versions omit file_type.
type UploadDocumentResponse struct {
	Id       string `json:"id"`
	Filename string `json:"filename"`
	FileType string `json:"file_type,omitempty"`
	Chunks   int    `json:"chunks"`
	Status   string `json:"status,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type BannerResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the FastAPI-style error body.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
