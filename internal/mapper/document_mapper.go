package mapper

import (
	"path/filepath"
	"strings"

	"ai-knowledge-client/internal/dto"
	"ai-knowledge-client/internal/entity"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d dto.DocumentResponse) entity.Document {
	fileType := d.FileType
	if fileType == "" {
		fileType = FileExtension(d.Filename)
	}
	return entity.Document{
		Id:       d.Id,
		Filename: d.Filename,
		FileType: fileType,
		Chunks:   d.Chunks,
	}
}

func (m *DocumentMapper) ToEntities(docs []dto.DocumentResponse) []entity.Document {
	result := make([]entity.Document, 0, len(docs))
	for _, d := range docs {
		result = append(result, m.ToEntity(d))
	}
	return result
}

// UploadToEntity fills file_type from the filename when the service leaves it out.
func (m *DocumentMapper) UploadToEntity(res *dto.UploadDocumentResponse) entity.Document {
	return m.ToEntity(dto.DocumentResponse{
		Id:       res.Id,
		Filename: res.Filename,
		FileType: res.FileType,
		Chunks:   res.Chunks,
	})
}

// FileExtension returns the lower-cased text after the last dot, without the dot.
func FileExtension(name string) string {
	ext := filepath.Ext(name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
