package main

import (
	"fmt"
	"io"
	"strings"

	"ai-knowledge-client/internal/constant"
	"ai-knowledge-client/internal/entity"
	"ai-knowledge-client/internal/service"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
)

type stepKind int

const (
	stepGeneric stepKind = iota
	stepSearch
	stepWeather
	stepMemory
)

// classifyStep picks a reasoning step kind from its label.
func classifyStep(step string) stepKind {
	s := strings.ToLower(step)
	switch {
	case strings.Contains(s, "search") || strings.Contains(s, "document"):
		return stepSearch
	case strings.Contains(s, "weather"):
		return stepWeather
	case strings.Contains(s, "memory"):
		return stepMemory
	default:
		return stepGeneric
	}
}

func (k stepKind) icon() string {
	switch k {
	case stepSearch:
		return "🔎"
	case stepWeather:
		return "🌤"
	case stepMemory:
		return "🧠"
	default:
		return "✨"
	}
}

func formatCitation(c entity.Citation) string {
	return fmt.Sprintf("%s: Page %d", c.Source, c.Page)
}

type renderer struct {
	out io.Writer
	md  *glamour.TermRenderer

	dim     *color.Color
	accent  *color.Color
	success *color.Color
	failure *color.Color
}

// newRenderer falls back to plain text when markdown rendering is off or unavailable.
func newRenderer(out io.Writer, width int, markdown bool) *renderer {
	r := &renderer{
		out:     out,
		dim:     color.New(color.Faint),
		accent:  color.New(color.FgCyan, color.Bold),
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
	}
	if markdown {
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err == nil {
			r.md = md
		}
	}
	return r
}

func (r *renderer) markdown(content string) string {
	if r.md == nil || strings.TrimSpace(content) == "" {
		return content + "\n"
	}
	rendered, err := r.md.Render(content)
	if err != nil {
		return content + "\n"
	}
	return rendered
}

func (r *renderer) message(m entity.ChatMessage) {
	if m.Role == entity.ChatRoleUser {
		r.accent.Fprint(r.out, "you › ")
		fmt.Fprintln(r.out, m.Content)
		return
	}

	if len(m.Thoughts) > 0 {
		r.dim.Fprintf(r.out, "Reasoning (%d steps)\n", len(m.Thoughts))
		for _, t := range m.Thoughts {
			r.dim.Fprintf(r.out, "  %s %s: %s\n", classifyStep(t.Step).icon(), t.Step, t.Detail)
		}
	}

	if m.Fallback {
		r.failure.Fprintln(r.out, m.Content)
	} else {
		fmt.Fprint(r.out, r.markdown(m.Content))
	}

	if len(m.Citations) > 0 {
		r.dim.Fprintln(r.out, "Sources")
		for _, c := range m.Citations {
			fmt.Fprintf(r.out, "  • %s\n", formatCitation(c))
			if c.Chunk != "" {
				r.dim.Fprintf(r.out, "    %s\n", c.Chunk)
			}
		}
	}

	for _, f := range m.MemoryUpdates {
		r.success.Fprintf(r.out, "  🧠 remembered (%s): %s\n", f.Target, f.Fact)
	}
}

func (r *renderer) documents(docs []entity.Document) {
	if len(docs) == 0 {
		r.dim.Fprintln(r.out, "No documents yet. Upload PDF, MD, or TXT files.")
		return
	}
	for _, d := range docs {
		fmt.Fprintf(r.out, "%-38s %-30s %-4s %d chunks\n", d.Id, d.Filename, strings.ToUpper(d.FileType), d.Chunks)
	}
}

func (r *renderer) badges(b entity.Badges, online bool) {
	status := r.failure.Sprint("● Agent Offline")
	if online {
		status = r.success.Sprint("● Agent Online")
	}
	fmt.Fprintf(r.out, "%s  📄 %d docs  🧠 %d memories\n", status, b.Documents, b.Memories)
}

func (r *renderer) memoryFeed(facts []entity.MemoryFact) {
	if len(facts) == 0 {
		r.dim.Fprintln(r.out, "No memories yet.")
		return
	}
	for _, f := range facts {
		when := ""
		if !f.Timestamp.IsZero() {
			when = f.Timestamp.Local().Format("15:04") + " "
		}
		fmt.Fprintf(r.out, "%s[%s] %s\n", r.dim.Sprint(when), f.Target, f.Fact)
	}
}

func (r *renderer) memoryDocuments(docs entity.MemoryDocuments) {
	r.accent.Fprintln(r.out, "User memory")
	r.printDocument(docs.User)
	r.accent.Fprintln(r.out, "Company memory")
	r.printDocument(docs.Company)
}

func (r *renderer) printDocument(content string) {
	if strings.TrimSpace(content) == "" {
		r.dim.Fprintln(r.out, "  (empty)")
		return
	}
	fmt.Fprint(r.out, r.markdown(content))
}

func (r *renderer) suggestions() {
	r.accent.Fprintln(r.out, "Ask anything about your docs")
	for i, p := range constant.SuggestedPrompts {
		r.dim.Fprintf(r.out, "  %d. %s\n", i+1, p)
	}
}

func (r *renderer) notification(level string, message string) {
	if level == string(service.NotificationError) {
		r.failure.Fprintf(r.out, "✗ %s\n", message)
		return
	}
	r.success.Fprintf(r.out, "✓ %s\n", message)
}

func (r *renderer) progress(filename string, stage string, percent int) {
	if stage == entity.UploadStageInactive.String() {
		return
	}
	r.dim.Fprintf(r.out, "  %s %-9s %3d%%\n", filename, stage, percent)
}
