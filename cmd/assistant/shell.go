package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ai-knowledge-client/internal/bootstrap"
	"ai-knowledge-client/internal/constant"
	"ai-knowledge-client/internal/entity"
	"ai-knowledge-client/internal/service"
)

const shellHelp = `Commands:
  /upload <path>...   index PDF, MD or TXT files
  /docs               list indexed documents
  /delete <id>        remove a document
  /feed               memories captured in this session
  /memory [refresh]   show the user and company memory documents
  /status             agent status and counters
  /reset              wipe all documents, memories and the conversation
  /help               this text
  /quit               leave
Anything else is sent to the agent.`

type shell struct {
	c   *bootstrap.Container
	r   *renderer
	in  *bufio.Scanner
	out io.Writer
}

func newShell(c *bootstrap.Container, r *renderer, in io.Reader, out io.Writer) *shell {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &shell{c: c, r: r, in: scanner, out: out}
}

func (s *shell) run(ctx context.Context) error {
	_ = s.c.Catalog.Refresh(ctx)
	s.status(ctx)
	if len(s.c.Chat.Messages()) == 0 {
		s.r.suggestions()
	}

	for {
		fmt.Fprint(s.out, "> ")
		if !s.in.Scan() {
			return s.in.Err()
		}
		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := s.command(ctx, line); quit {
				return nil
			}
			continue
		}

		// A bare number picks a suggested prompt on an empty conversation.
		if n, err := strconv.Atoi(line); err == nil && len(s.c.Chat.Messages()) == 0 &&
			n >= 1 && n <= len(constant.SuggestedPrompts) {
			line = constant.SuggestedPrompts[n-1]
			s.r.message(entity.ChatMessage{Role: entity.ChatRoleUser, Content: line})
		}
		s.send(ctx, line)
	}
}

func (s *shell) send(ctx context.Context, text string) {
	reply, err := s.c.Shell.Send(ctx, text)
	switch {
	case errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrTurnInFlight),
		errors.Is(err, service.ErrTurnDiscarded):
		return
	case err != nil:
		s.r.notification(string(service.NotificationError), err.Error())
		return
	}
	s.r.message(*reply)
}

func (s *shell) command(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	args := fields[1:]

	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(s.out, shellHelp)
	case "/upload":
		if len(args) == 0 {
			fmt.Fprintln(s.out, "usage: /upload <path>...")
			break
		}
		s.c.Upload.UploadFiles(ctx, localFiles(args))
	case "/docs":
		if err := s.c.Catalog.Refresh(ctx); err != nil {
			s.r.notification(string(service.NotificationError), "Could not reach the agent, showing cached list")
		}
		s.r.documents(s.c.Catalog.List())
	case "/delete":
		if len(args) != 1 {
			fmt.Fprintln(s.out, "usage: /delete <id>")
			break
		}
		_ = s.c.Upload.DeleteDocument(ctx, args[0])
	case "/feed":
		s.r.memoryFeed(s.c.MemoryFeed.Entries())
	case "/memory":
		if len(args) > 0 && args[0] == "refresh" || s.c.MemoryMirror.Snapshot().FetchedAt.IsZero() {
			if err := s.c.MemoryMirror.Refresh(ctx); err != nil {
				s.r.notification(string(service.NotificationError), "Could not load memory documents")
			}
		}
		s.r.memoryDocuments(s.c.MemoryMirror.Snapshot())
	case "/status":
		s.status(ctx)
	case "/reset":
		if err := s.c.Shell.Reset(ctx); errors.Is(err, service.ErrResetInFlight) {
			fmt.Fprintln(s.out, "A reset is already running.")
		}
	default:
		fmt.Fprintf(s.out, "Unknown command %s. Type /help.\n", fields[0])
	}
	return false
}

func (s *shell) status(ctx context.Context) {
	_, err := s.c.Shell.Status(ctx)
	s.r.badges(s.c.Shell.Badges(), err == nil)
}

func localFiles(paths []string) []entity.FileHandle {
	files := make([]entity.FileHandle, 0, len(paths))
	for _, p := range paths {
		files = append(files, entity.LocalFile{Path: p})
	}
	return files
}
