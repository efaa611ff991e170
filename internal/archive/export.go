package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

// ExportZip bundles the archived statements of docs into a ZIP file grouped
// by document kind. Statements that cannot be read are skipped; the count of
// bundled files is returned.
func ExportZip(ctx context.Context, a Archive, docs []*model.Document) ([]byte, int, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	count := 0
	for _, doc := range docs {
		data, err := a.Get(ctx, doc.StoragePath)
		if err != nil {
			slog.Warn("[archive] skipping unreadable statement", "document_id", doc.ID, "error", err)
			continue
		}
		name := fmt.Sprintf("%s/%s_%s", kindFolder(doc.Kind), doc.UploadedAt.Format("2006-01-02"), sanitizeFilename(doc.Filename))
		w, err := zw.Create(name)
		if err != nil {
			continue
		}
		if _, err := w.Write(data); err != nil {
			continue
		}
		count++
	}

	if err := zw.Close(); err != nil {
		return nil, 0, fmt.Errorf("create zip: %w", err)
	}
	return buf.Bytes(), count, nil
}

func kindFolder(kind model.DocumentKind) string {
	switch kind {
	case model.DocumentKindPDF:
		return "extractos"
	case model.DocumentKindWorkbook:
		return "hojas"
	default:
		return "otros"
	}
}
