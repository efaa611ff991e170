package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

// ExtractionService runs the workbook and statement extractors and keeps
// workbook drafts until they are reviewed.
type ExtractionService struct {
	workbooks *WorkbookExtractor
	profits   *TextProfitExtractor
	drafts    *DraftStore
	logger    *slog.Logger
}

// Config holds configuration for the extraction service.
type Config struct {
	DraftTTL time.Duration
	Logger   *slog.Logger
}

// NewExtractionService creates a new extraction service.
func NewExtractionService(cfg Config) *ExtractionService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.DraftTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ExtractionService{
		workbooks: NewWorkbookExtractor(logger),
		profits:   NewTextProfitExtractor(logger),
		drafts:    NewDraftStore(ttl),
		logger:    logger,
	}
}

// Drafts exposes the draft store.
func (s *ExtractionService) Drafts() *DraftStore {
	return s.drafts
}

// Close stops background cleanup.
func (s *ExtractionService) Close() {
	s.drafts.Stop()
}

// ExtractWorkbook parses an uploaded workbook into a stored draft.
func (s *ExtractionService) ExtractWorkbook(
	ctx context.Context,
	data []byte,
	filename string,
	clientID string,
	reportDate time.Time,
) (*model.ReportDraft, error) {
	if clientID == "" {
		return nil, fmt.Errorf("client ID is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wb, err := LoadWorkbook(data, filename)
	if err != nil {
		return nil, err
	}

	draft := s.workbooks.ExtractDraft(wb, clientID, reportDate)
	if err := s.drafts.Put(draft); err != nil {
		return nil, fmt.Errorf("store draft: %w", err)
	}
	return draft, nil
}

// StatementText returns the text of a statement: the text layer of a PDF or
// the file itself for .txt exports.
func (s *ExtractionService) StatementText(data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", newExtractionError(ErrEmptyDocument, filename, "empty statement payload", nil)
	}
	if isPDF(data) {
		st, err := ExtractPDFText(data)
		if err != nil {
			var extErr *ExtractionError
			if errors.As(err, &extErr) {
				extErr.Filename = filename
			}
			return "", err
		}
		if st.IsScanned {
			s.logger.Info("[extraction] statement has no usable text layer", "filename", filename, "pages", st.PageCount)
		}
		return st.Text, nil
	}
	if strings.EqualFold(filepath.Ext(filename), ".txt") {
		return string(data), nil
	}
	return "", newExtractionError(ErrUnsupportedFormat, filename, "statement must be a PDF or text export", nil)
}

// ExtractProfits detects profit items in a statement file.
func (s *ExtractionService) ExtractProfits(ctx context.Context, data []byte, filename string) ([]model.ProfitItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, err := s.StatementText(data, filename)
	if err != nil {
		return nil, err
	}
	items := s.profits.Extract(text)
	s.logger.Info("[extraction] profits extracted", "filename", filename, "items", len(items))
	return items, nil
}
