package stubserver

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"ai-knowledge-client/internal/dto"
	"ai-knowledge-client/internal/mapper"
	"ai-knowledge-client/pkg/utils"

	"github.com/google/uuid"
)

const (
	chunkWords   = 500
	chunkOverlap = 50
)

type storedDocument struct {
	info   dto.DocumentResponse
	chunks []string
}

type searchHit struct {
	Source     string
	ChunkIndex int
	Text       string
	score      int
}

// Store is the in-memory knowledge base behind the stub agent.
type Store struct {
	mu        sync.RWMutex
	documents []storedDocument
	memory    map[string][]string
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{
		memory: map[string][]string{},
		now:    time.Now,
	}
}

// AddDocument chunks text and indexes it under a new id.
func (s *Store) AddDocument(filename string, text string) dto.DocumentResponse {
	chunks := utils.SplitWords(text, chunkWords, chunkOverlap)
	info := dto.DocumentResponse{
		Id:         uuid.New().String(),
		Filename:   filename,
		FileType:   mapper.FileExtension(filename),
		Chunks:     len(chunks),
		UploadedAt: s.now().UTC().Format(time.RFC3339Nano),
	}

	s.mu.Lock()
	s.documents = append(s.documents, storedDocument{info: info, chunks: chunks})
	s.mu.Unlock()
	return info
}

func (s *Store) Documents() []dto.DocumentResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]dto.DocumentResponse, 0, len(s.documents))
	for _, d := range s.documents {
		out = append(out, d.info)
	}
	return out
}

// DeleteDocument removes a document; unknown ids are ignored.
func (s *Store) DeleteDocument(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.documents[:0]
	for _, d := range s.documents {
		if d.info.Id != id {
			kept = append(kept, d)
		}
	}
	s.documents = kept
}

// ChunkCount is the number of indexed chunks across all documents.
func (s *Store) ChunkCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, d := range s.documents {
		total += len(d.chunks)
	}
	return total
}

// Search ranks chunks by how many distinct query terms they contain.
func (s *Store) Search(query string, limit int) []searchHit {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil
	}

	s.mu.RLock()
	var hits []searchHit
	for _, d := range s.documents {
		for i, chunk := range d.chunks {
			lower := strings.ToLower(chunk)
			score := 0
			for _, term := range terms {
				if strings.Contains(lower, term) {
					score++
				}
			}
			if score > 0 {
				hits = append(hits, searchHit{Source: d.info.Filename, ChunkIndex: i, Text: chunk, score: score})
			}
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// Remember appends a fact to the target's memory document.
func (s *Store) Remember(target string, fact string) dto.MemoryUpdateDTO {
	now := s.now().UTC()

	s.mu.Lock()
	s.memory[target] = append(s.memory[target], fmt.Sprintf("- [%s] %s", now.Format("2006-01-02 15:04"), fact))
	s.mu.Unlock()

	return dto.MemoryUpdateDTO{
		Id:        uuid.New().String(),
		Target:    target,
		Fact:      fact,
		Timestamp: now.Format(time.RFC3339Nano),
	}
}

// Memory renders the target's memory document as markdown.
func (s *Store) Memory(target string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := s.memory[target]
	if len(lines) == 0 {
		return ""
	}
	title := "User"
	if target == "company" {
		title = "Company"
	}
	return fmt.Sprintf("# %s Memory\n\n%s\n", title, strings.Join(lines, "\n"))
}

func (s *Store) Reset() {
	s.mu.Lock()
	s.documents = nil
	s.memory = map[string][]string{}
	s.mu.Unlock()
}

var stopWords = map[string]bool{
	"the": true, "and": true, "are": true, "what": true, "for": true, "with": true,
	"from": true, "that": true, "this": true, "about": true, "into": true, "your": true,
	"have": true, "does": true, "which": true, "there": true, "main": true,
}

func queryTerms(query string) []string {
	seen := map[string]bool{}
	var terms []string
	for _, w := range strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if len(w) < 3 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}
