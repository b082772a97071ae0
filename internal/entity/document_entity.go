package entity

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// Document is the client-side mirror of an ingested file. Id is assigned by the service.
type Document struct {
	Id       string
	Filename string
	FileType string
	Chunks   int
}

// FileHandle is a file queued for upload.
type FileHandle interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// LocalFile reads an upload from disk.
type LocalFile struct {
	Path string
}

func (f LocalFile) Name() string {
	return filepath.Base(f.Path)
}

func (f LocalFile) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

// MemoryFile is an upload whose payload is already in memory.
type MemoryFile struct {
	Filename string
	Data     []byte
}

func (f MemoryFile) Name() string {
	return f.Filename
}

func (f MemoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Data)), nil
}
