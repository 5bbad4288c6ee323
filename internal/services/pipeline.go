package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"papertag/internal/extractor"
	"papertag/internal/models"
	"papertag/internal/store"
	"papertag/pkg/classifier"
)

// Stats is the end-of-run tally, broken down the way the batch reports
// it: one counter per outcome, extraction errors by category.
type Stats struct {
	Total            int
	Processed        int
	Applied          int
	Skipped          int
	WriteFailed      int
	NotFound         int
	ExtractionErrors map[string]int
}

// ErrorCount sums the extraction error categories.
func (s *Stats) ErrorCount() int {
	n := 0
	for _, c := range s.ExtractionErrors {
		n += c
	}
	return n
}

// Pipeline runs the source → extract → classify → write flow over a
// whole library, one item at a time. There is no concurrency and no
// retry: a failure at any stage finishes that item and the loop moves
// on.
type Pipeline struct {
	source     store.ItemSource
	classifier classifier.Classifier
	writer     *TagWriter

	// extract is swappable so tests can run without real PDFs.
	extract func(path string) extractor.Result

	delay time.Duration
	limit int
	out   io.Writer
}

// PipelineOption customizes a Pipeline.
type PipelineOption func(*Pipeline)

// WithDelay sets the pause between items, respecting the inference
// API's rate limit.
func WithDelay(d time.Duration) PipelineOption {
	return func(p *Pipeline) { p.delay = d }
}

// WithLimit caps how many items are processed; zero means all.
func WithLimit(n int) PipelineOption {
	return func(p *Pipeline) { p.limit = n }
}

// WithOutput redirects per-item progress lines, used by tests.
func WithOutput(w io.Writer) PipelineOption {
	return func(p *Pipeline) { p.out = w }
}

// WithExtractor substitutes the extraction function.
func WithExtractor(fn func(string) extractor.Result) PipelineOption {
	return func(p *Pipeline) { p.extract = fn }
}

// NewPipeline wires a batch run.
func NewPipeline(source store.ItemSource, cls classifier.Classifier, writer *TagWriter, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		source:     source,
		classifier: cls,
		writer:     writer,
		extract:    extractor.Extract,
		delay:      time.Second,
		out:        os.Stdout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var (
	markOK   = color.New(color.FgGreen).Sprint("✓")
	markFail = color.New(color.FgRed).Sprint("✗")
	markSkip = color.New(color.FgYellow).Sprint("•")
)

// Run processes the library once. Per-item failures land in the tally;
// only enumeration failure or context cancellation aborts the run.
func (p *Pipeline) Run(ctx context.Context) (*Stats, error) {
	runLog := log.WithField("run_id", uuid.NewString())

	items, err := p.source.ListItemsWithPDF(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate items: %w", err)
	}

	stats := &Stats{ExtractionErrors: make(map[string]int)}
	total := len(items)
	if p.limit > 0 && p.limit < total {
		items = items[:p.limit]
	}
	stats.Total = len(items)
	runLog.WithFields(log.Fields{"items_with_pdf": total, "processing": stats.Total}).
		Info("starting tagging run")

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		fmt.Fprintf(p.out, "[%d/%d] %s\n", i+1, stats.Total, truncateTitle(item.Title, 60))
		p.processItem(ctx, runLog, item, stats)

		if p.delay > 0 && i < len(items)-1 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(p.delay):
			}
		}
	}

	runLog.WithFields(log.Fields{
		"processed":         stats.Processed,
		"applied":           stats.Applied,
		"skipped":           stats.Skipped,
		"write_failed":      stats.WriteFailed,
		"pdfs_not_found":    stats.NotFound,
		"extraction_errors": stats.ErrorCount(),
	}).Info("tagging run finished")
	return stats, nil
}

// processItem walks one item through the per-item state machine:
// discovered → extracted → classified → written.
func (p *Pipeline) processItem(ctx context.Context, runLog *log.Entry, item models.Item, stats *Stats) {
	itemLog := runLog.WithField("item", item.Key)

	att := item.FirstPDF()
	if att == nil || att.Path == "" {
		stats.NotFound++
		fmt.Fprintf(p.out, "  %s %s: no PDF attachment resolved\n", markFail, item.Title)
		return
	}
	if _, err := os.Stat(att.Path); err != nil {
		stats.NotFound++
		fmt.Fprintf(p.out, "  %s %s: PDF file not found\n", markFail, item.Title)
		return
	}

	res := p.extract(att.Path)
	if !res.OK() {
		stats.ExtractionErrors[res.Status.String()]++
		itemLog.WithField("status", res.Status.String()).Warn("extraction failed")
		fmt.Fprintf(p.out, "  %s %s: %s\n", markFail, item.Title, res.Status)
		return
	}

	tags, err := p.classifier.Classify(ctx, classifier.Request{
		Title:    item.Title,
		Abstract: item.Abstract,
		Body:     res.Text,
	})
	if err != nil {
		// An inference failure means "no tags suggested", not a dead
		// item: the write stage below turns it into a skip.
		itemLog.WithError(err).Warn("classification failed, treating as no tags")
		tags = nil
	}

	outcome, err := p.writer.ApplyTags(ctx, item.Key, tags)
	switch {
	case err != nil:
		stats.WriteFailed++
		itemLog.WithError(err).Error("tag write failed")
		fmt.Fprintf(p.out, "  %s %s: %v\n", markFail, item.Title, err)
	case outcome.Applied:
		stats.Applied++
		fmt.Fprintf(p.out, "  %s %s: %s\n", markOK, item.Title, outcome.Message)
	default:
		stats.Skipped++
		fmt.Fprintf(p.out, "  %s %s: %s\n", markSkip, item.Title, outcome.Message)
	}
	stats.Processed++
}

func truncateTitle(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
