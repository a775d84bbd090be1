package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/ledongthuc/pdf"

	"ndaredline/internal/domain"
	"ndaredline/internal/logging"
)

// Kind classifies why a document could not be loaded.
type Kind string

const (
	NotFound     Kind = "not found"
	EmptyContent Kind = "empty content"
	ReadError    Kind = "read error"
)

// Error is returned for every load failure. It matches domain.ErrLoad.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("load %s: %s", e.Path, e.Kind)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{domain.ErrLoad}
	}
	return []error{domain.ErrLoad, e.Err}
}

// FileLoader reads .txt/.md files as UTF-8 and extracts text from .pdf files.
type FileLoader struct {
	logger *log.Logger
}

func New(logger *log.Logger) *FileLoader {
	return &FileLoader{logger: logging.OrDiscard(logger)}
}

// DetectFormat maps a file extension to a document format.
func DetectFormat(path string) domain.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return domain.FormatPDF
	case ".md", ".markdown":
		return domain.FormatMarkdown
	default:
		return domain.FormatPlain
	}
}

// Load reads the file once. There are no retries.
func (l *FileLoader) Load(path string) (domain.Document, error) {
	l.logger.Info("reading contract file", "path", path)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.logger.Error("contract file not found", "path", path)
			return domain.Document{}, &Error{Kind: NotFound, Path: path, Err: err}
		}
		l.logger.Error("error reading contract file", "path", path, "err", err)
		return domain.Document{}, &Error{Kind: ReadError, Path: path, Err: err}
	}
	if info.IsDir() {
		return domain.Document{}, &Error{Kind: ReadError, Path: path, Err: errors.New("is a directory")}
	}

	format := DetectFormat(path)
	var text string
	if format == domain.FormatPDF {
		text, err = l.readPDF(path)
	} else {
		text, err = readText(path)
	}
	if err != nil {
		l.logger.Error("error reading contract file", "path", path, "err", err)
		return domain.Document{}, &Error{Kind: ReadError, Path: path, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		l.logger.Error("contract file is empty or could not be read properly", "path", path)
		return domain.Document{}, &Error{Kind: EmptyContent, Path: path}
	}
	l.logger.Info("contract loaded", "chars", utf8.RuneCountInString(text), "format", format)
	return domain.Document{Path: path, Format: format, Content: text}, nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", errors.New("content is not valid UTF-8")
	}
	return string(data), nil
}

// readPDF extracts text page by page, appending a newline after each page.
func (l *FileLoader) readPDF(path string) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	l.logger.Info("detected PDF file, extracting text")
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	pages := r.NumPage()
	l.logger.Info("PDF loaded", "pages", pages)
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		pageText := ""
		if !page.V.IsNull() {
			pageText, err = page.GetPlainText(nil)
			if err != nil {
				return "", fmt.Errorf("page %d: %w", i, err)
			}
		}
		l.logger.Info("extracted page text", "page", i, "chars", utf8.RuneCountInString(pageText))
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	l.logger.Info("total extracted text", "chars", b.Len())
	return b.String(), nil
}
