package stubserver

import (
	"fmt"
	"strings"

	"ai-knowledge-client/internal/dto"
	"ai-knowledge-client/pkg/utils"
)

const maxCitations = 5

var weatherKeywords = []string{"weather", "temperature", "forecast", "climate", "rain", "wind", "humidity", "hot", "cold"}

var companyMarkers = []string{"our company", "the company", "our team", "we ", "our "}

// Agent answers chat turns from the store with a deterministic pipeline:
// weather detection, keyword retrieval, memory capture, answer composition.
type Agent struct {
	store *Store
}

func NewAgent(store *Store) *Agent {
	return &Agent{store: store}
}

func (a *Agent) Respond(req dto.SendChatRequest) dto.SendChatResponse {
	message := strings.TrimSpace(req.Message)
	lower := strings.ToLower(message)

	res := dto.SendChatResponse{}

	isWeather := containsAny(lower, weatherKeywords)
	if isWeather {
		res.Thoughts = append(res.Thoughts, dto.ThoughtStepDTO{
			Step:   "Weather Detection",
			Detail: "Weather query detected. Live weather data is not available offline.",
		})
	}

	res.Thoughts = append(res.Thoughts, dto.ThoughtStepDTO{
		Step:   "Searching Documents",
		Detail: fmt.Sprintf("Performing keyword search over %d chunks...", a.store.ChunkCount()),
	})
	hits := a.store.Search(message, maxCitations)
	if len(hits) > 0 {
		res.Thoughts = append(res.Thoughts, dto.ThoughtStepDTO{
			Step:   "Documents Found",
			Detail: fmt.Sprintf("Found %d relevant chunks from uploaded documents", len(hits)),
		})
	} else {
		res.Thoughts = append(res.Thoughts, dto.ThoughtStepDTO{
			Step:   "No Documents",
			Detail: "No relevant documents found in knowledge base",
		})
	}
	for _, h := range hits {
		res.Citations = append(res.Citations, dto.CitationDTO{
			Source: h.Source,
			Page:   h.ChunkIndex + 1,
			Chunk:  utils.Excerpt(h.Text, 150),
		})
	}

	if fact, target, ok := extractMemory(message); ok {
		update := a.store.Remember(target, fact)
		res.MemoryUpdates = append(res.MemoryUpdates, update)
		res.Thoughts = append(res.Thoughts, dto.ThoughtStepDTO{
			Step:   "Memory Update",
			Detail: fmt.Sprintf("Saved to %s memory", target),
		})
	}

	res.Thoughts = append(res.Thoughts, dto.ThoughtStepDTO{
		Step:   "Generating Response",
		Detail: "Composing answer from retrieved context...",
	})
	res.Response = compose(hits, len(res.MemoryUpdates) > 0, isWeather)
	return res
}

func compose(hits []searchHit, remembered bool, isWeather bool) string {
	var b strings.Builder
	switch {
	case len(hits) > 0:
		b.WriteString("Here is what I found in your files:\n\n")
		for _, h := range hits {
			fmt.Fprintf(&b, "- **%s** (chunk %d): %s\n", h.Source, h.ChunkIndex+1, utils.Excerpt(h.Text, 200))
		}
	case remembered:
		b.WriteString("Noted. I'll remember that.")
	case isWeather:
		b.WriteString("I can't reach a weather service right now, and I couldn't find that in your files.")
	default:
		b.WriteString("I couldn't find that in your files.")
	}
	return b.String()
}

// extractMemory recognises "remember ..." instructions.
func extractMemory(message string) (fact string, target string, ok bool) {
	lower := strings.ToLower(message)
	if !strings.HasPrefix(lower, "remember ") {
		return "", "", false
	}

	fact = strings.TrimSpace(message[len("remember "):])
	if strings.HasPrefix(strings.ToLower(fact), "that ") {
		fact = strings.TrimSpace(fact[len("that "):])
	}
	fact = strings.TrimRight(fact, ".!")
	if fact == "" {
		return "", "", false
	}

	target = "user"
	if containsAny(strings.ToLower(fact)+" ", companyMarkers) {
		target = "company"
	}
	return fact, target, true
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
