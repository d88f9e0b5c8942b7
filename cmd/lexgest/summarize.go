package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgallion1/lexgest/internal/citation"
	"github.com/dgallion1/lexgest/internal/export"
	"github.com/dgallion1/lexgest/internal/parser"
	"github.com/dgallion1/lexgest/internal/pipeline"
)

type summarizeOptions struct {
	format string
	text   string
	output string
}

func newSummarizeCommand(c *cli) *cobra.Command {
	var o summarizeOptions
	cmd := &cobra.Command{
		Use:   "summarize [file...]",
		Short: "Summarize local documents and print the export",
		Long: `Summarize parses each file as one document, runs the full pipeline over
all of them together and writes the export to stdout or --output.
A file argument of "-" reads plain text from stdin.`,
		Annotations: map[string]string{logOutputKey: "stderr"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.summarize(cmd.Context(), o, args, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.format, "format", "f", "markdown", "export format (markdown, text, html, json, yaml)")
	f.StringVarP(&o.text, "text", "t", "", "text to summarize in addition to any files")
	f.StringVarP(&o.output, "output", "o", "", "write the export to this file instead of stdout")
	f.String("length", "", "summary length (short, medium, long)")
	f.String("complexity", "", "language complexity (simple, balanced, advanced)")
	f.String("tone", "", "tone (professional, formal, casual)")
	f.String("style", "", "style (detailed, concise, narrative)")
	f.String("jurisdiction", "", "jurisdiction hint passed to the model")
	f.Int("token-ceiling", 0, "token budget per batch")
	f.Int("concurrency", 0, "batches extracted in parallel")
	f.Duration("batch-timeout", 0, "timeout for one batch extraction")
	f.String("merge-strategy", "", "merge strategy (deterministic, model, hybrid)")
	return cmd
}

func (c *cli) summarize(parent context.Context, o summarizeOptions, args []string, stdin io.Reader, stdout io.Writer) error {
	cfg, log := c.cfg, c.log
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	format, err := export.ParseFormat(o.format)
	if err != nil {
		return err
	}

	sess := pipeline.NewSession("", nil)
	popts := parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext}
	if err := loadDocuments(sess, args, o.text, stdin, popts, log); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
	}

	a, err := buildApp(ctx, cfg, log, false)
	if err != nil {
		return err
	}
	defer a.Close()

	docs := sess.Documents()
	item, err := a.runner.Run(ctx, pipeline.RunInput{
		Documents: docs,
		Options:   cfg.Options(),
		Progress: func(p pipeline.Progress) {
			log.Info("progress",
				zap.String("stage", string(p.Stage)),
				zap.Int("percent", p.Percent()),
				zap.Int("batches_done", p.Done),
				zap.Int("batches_total", p.Total))
		},
	})
	if err != nil {
		return err
	}
	if !item.Coverage.Complete() {
		log.Warn("summary is partial",
			zap.Int("dropped_batches", item.Coverage.DroppedBatches),
			zap.Int("total_batches", item.Coverage.TotalBatches),
			zap.Strings("dropped_paragraphs", item.Coverage.DroppedParagraphs))
	}

	w := stdout
	if o.output != "" {
		f, err := os.Create(o.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := export.Render(w, format, item, citation.NewResolver(pipeline.Paragraphs(docs))); err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	return nil
}

// loadDocuments adds each input to sess in argument order, followed by the
// pasted text. Unreadable files are errors here, unlike the service, since the
// user named them explicitly.
func loadDocuments(sess *pipeline.Session, args []string, text string, stdin io.Reader, opts parser.Options, log *zap.Logger) error {
	for _, arg := range args {
		if arg == "-" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			sess.AddDocument("stdin", string(data))
			continue
		}
		data, err := os.ReadFile(arg)
		if err != nil {
			return fmt.Errorf("read %s: %w", arg, err)
		}
		name := filepath.Base(arg)
		title, body, err := parser.ExtractText(data, name, opts, func(done, total int) {
			log.Debug("parse progress", zap.String("file", name), zap.Int("done", done), zap.Int("total", total))
		})
		if err != nil {
			return &pipeline.StageError{Stage: pipeline.StageParse, Err: err}
		}
		if title == "" {
			title = name
		}
		sess.AddDocument(title, body)
	}
	if strings.TrimSpace(text) != "" {
		sess.AddDocument(pipeline.PastedTextName, text)
	}
	if len(sess.Paragraphs()) == 0 {
		return errors.New("nothing to summarize: pass files, \"-\" or --text")
	}
	return nil
}
