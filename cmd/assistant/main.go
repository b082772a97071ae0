package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ai-knowledge-client/internal/bootstrap"
	"ai-knowledge-client/internal/config"
	"ai-knowledge-client/internal/entity"
	"ai-knowledge-client/internal/pkg/logger"
	"ai-knowledge-client/internal/tracer"
	"ai-knowledge-client/pkg/events"
	pktNats "ai-knowledge-client/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var version = "dev"

// app carries what every command needs; the container is built on demand.
type app struct {
	cfg      *config.Config
	log      logger.ILogger
	r        *renderer
	c        *bootstrap.Container
	shutdown func(context.Context) error

	plain bool
	width int
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.NewIsolatedLogger(cfg.App.LogFilePath, cfg.App.Debug)
	a.shutdown = tracer.InitTracer(cfg.Tracing, "assistant-cli", a.log)
	if a.plain {
		color.NoColor = true
	}
	a.r = newRenderer(cmd.OutOrStdout(), a.width, !a.plain)
	return nil
}

// teardown runs after every command, including failed ones.
func (a *app) teardown(cmdErr error) {
	if a.c != nil {
		a.c.Close()
		a.c = nil
	}
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.shutdown(ctx)
	}
	if a.log != nil {
		details := map[string]interface{}{}
		if cmdErr != nil {
			details["error"] = cmdErr.Error()
		}
		a.log.Info("CLI", "Command finished", details)
		_ = a.log.Sync()
	}
}

// container wires the components and starts the observers.
func (a *app) container(ctx context.Context) (*bootstrap.Container, error) {
	if a.c != nil {
		return a.c, nil
	}
	c, err := bootstrap.NewContainer(ctx, a.cfg, a.log)
	if err != nil {
		return nil, err
	}
	if err := observe(ctx, c, a.r); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		c.Close()
		return nil, err
	}
	a.c = c
	return c, nil
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "assistant",
		Short: "Document-grounded assistant client",
		Long: `Upload documents, chat with an agent that cites them, and watch the
memories it forms. Without a subcommand an interactive shell starts.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			return newShell(c, a.r, cmd.InOrStdin(), cmd.OutOrStdout()).run(cmd.Context())
		},
	}
	rootCmd.PersistentFlags().BoolVar(&a.plain, "plain", false, "disable colours and markdown rendering")
	rootCmd.PersistentFlags().IntVar(&a.width, "width", 100, "wrap width for rendered replies")

	uploadCmd := &cobra.Command{
		Use:   "upload <path>...",
		Short: "Index PDF, MD or TXT files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			failed := 0
			for _, outcome := range c.Upload.UploadFiles(cmd.Context(), localFiles(args)) {
				if outcome.Status != entity.UploadStatusIndexed {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files were not indexed", failed, len(args))
			}
			return nil
		},
	}

	docsCmd := &cobra.Command{
		Use:   "docs",
		Short: "List indexed documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.Catalog.Refresh(cmd.Context()); err != nil {
				return err
			}
			a.r.documents(c.Catalog.List())
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			return c.Upload.DeleteDocument(cmd.Context(), args[0])
		},
	}

	chatCmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send one message in the current session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			reply, err := c.Shell.Send(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			a.r.message(*reply)
			return nil
		},
	}

	memoryCmd := &cobra.Command{
		Use:   "memory",
		Short: "Show the user and company memory documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.MemoryMirror.Refresh(cmd.Context()); err != nil {
				return err
			}
			a.r.memoryDocuments(c.MemoryMirror.Snapshot())
			return nil
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe all documents, memories and the conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			return c.Shell.Reset(cmd.Context())
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show agent status and counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			_ = c.Catalog.Refresh(cmd.Context())
			banner, err := c.Shell.Status(cmd.Context())
			a.r.badges(c.Shell.Badges(), err == nil)
			if err == nil {
				a.r.dim.Fprintln(cmd.OutOrStdout(), banner)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s (%s)\n", c.Shell.SessionID(), a.cfg.App.SessionProfile)
			return nil
		},
	}

	var logQuery logger.LogQuery
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Print recent client log entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.log.GetLogs(logQuery)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-5s %-8s %s %v\n", e.Timestamp, e.Level, e.Module, e.Message, e.Details)
			}
			return nil
		},
	}
	logsCmd.Flags().StringVar(&logQuery.Level, "level", "", "only show this level (debug, info, warn, error)")
	logsCmd.Flags().StringVar(&logQuery.Module, "module", "", "only show this module, e.g. CHAT or UPLOAD")
	logsCmd.Flags().IntVar(&logQuery.Limit, "limit", 50, "maximum number of entries")
	logsCmd.Flags().IntVar(&logQuery.Offset, "offset", 0, "skip this many newest entries")

	var watchType string
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow events bridged to NATS by another assistant process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Events.NatsURL == "" {
				return fmt.Errorf("NATS_URL is not set")
			}
			sub, err := pktNats.NewSubscriber(a.cfg.Events.NatsURL)
			if err != nil {
				return err
			}
			defer sub.Close()

			out := cmd.OutOrStdout()
			return sub.Watch(cmd.Context(), watchType, func(ctx context.Context, event events.Event) error {
				a.r.dim.Fprintf(out, "%s ", event.Timestamp().Local().Format("15:04:05"))
				fmt.Fprintf(out, "%s %v\n", event.EventType(), event.Payload())
				return nil
			})
		},
	}
	watchCmd.Flags().StringVar(&watchType, "type", "", "only show this event type, e.g. CHAT_TURN_COMPLETED")

	rootCmd.AddCommand(uploadCmd, docsCmd, deleteCmd, chatCmd, memoryCmd, resetCmd, statusCmd, logsCmd, watchCmd)

	return rootCmd
}

// execute runs the command line and always tears down, even when the command fails.
func execute(ctx context.Context, a *app, rootCmd *cobra.Command) error {
	err := rootCmd.ExecuteContext(ctx)
	a.teardown(err)
	return err
}

func main() {
	a := &app{}
	rootCmd := newRootCmd(a)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx, a, rootCmd)
	stop()

	if err != nil {
		os.Exit(1)
	}
}
