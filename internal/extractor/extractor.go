// Package extractor turns PDF files into plain text. Extraction
// problems are reported as a tagged Result, never as a returned error:
// the batch loop branches on the status and keeps going, nothing here
// may abort a run.
package extractor

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	log "github.com/sirupsen/logrus"
)

// MaxFileSize is the stat-based cap above which a PDF is rejected
// without being opened.
const MaxFileSize = 50 << 20 // 50 MB

// Status classifies the outcome of an extraction attempt.
type Status int

const (
	StatusOK Status = iota
	StatusNotPDF
	StatusTooLarge
	StatusFailed
	StatusEmpty
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotPDF:
		return "not a pdf"
	case StatusTooLarge:
		return "file too large"
	case StatusFailed:
		return "extraction failed"
	case StatusEmpty:
		return "empty result"
	}
	return fmt.Sprintf("extractor.Status(%d)", int(s))
}

// Result is the outcome of extracting one file. Err carries the
// underlying cause for StatusFailed and is nil otherwise.
type Result struct {
	Status Status
	Text   string
	Err    error
}

// OK reports whether the extraction produced usable text.
func (r Result) OK() bool { return r.Status == StatusOK }

// Extract reads the PDF at path and returns its text. The extension is
// checked first and the size cap is enforced from the file's stat info,
// so oversized files are never opened. The whole-document pass is tried
// first; if it errors or yields nothing, a page-by-page pass runs that
// skips individual broken pages.
func Extract(path string) Result {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return Result{Status: StatusNotPDF}
	}

	info, err := os.Stat(path)
	if err != nil {
		return Result{Status: StatusFailed, Err: fmt.Errorf("stat %s: %w", path, err)}
	}
	if info.Size() > MaxFileSize {
		log.WithFields(log.Fields{"path": path, "size_mb": info.Size() >> 20}).
			Debug("skipping oversized PDF")
		return Result{Status: StatusTooLarge}
	}

	text, primaryErr := extractWhole(path)
	if primaryErr == nil && strings.TrimSpace(text) != "" {
		return Result{Status: StatusOK, Text: text}
	}

	if primaryErr != nil {
		log.WithError(primaryErr).WithField("path", path).
			Debug("whole-document extraction failed, trying page by page")
	}

	text, fallbackErr := extractPages(path)
	switch {
	case fallbackErr != nil && primaryErr != nil:
		return Result{Status: StatusFailed, Err: fmt.Errorf("both extraction passes failed: %v; %w", primaryErr, fallbackErr)}
	case fallbackErr != nil:
		return Result{Status: StatusEmpty}
	case strings.TrimSpace(text) == "":
		return Result{Status: StatusEmpty}
	}
	return Result{Status: StatusOK, Text: text}
}

// extractWhole runs the library's single-shot text extraction.
func extractWhole(path string) (text string, err error) {
	// The pdf package panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// extractPages walks the document page by page, skipping pages that
// error or panic. Used as the fallback when the whole-document pass
// fails or comes back empty.
func extractPages(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sb strings.Builder
	skipped := 0
	for i := 1; i <= reader.NumPage(); i++ {
		text, ok := extractPage(reader, i)
		if !ok {
			skipped++
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	if skipped > 0 {
		log.WithFields(log.Fields{"path": path, "skipped_pages": skipped}).
			Debug("skipped unreadable pages during fallback extraction")
	}
	return sb.String(), nil
}

func extractPage(reader *pdf.Reader, n int) (text string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	page := reader.Page(n)
	if page.V.IsNull() {
		return "", false
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", false
	}
	return text, true
}
