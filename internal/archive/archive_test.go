package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

func TestStatementPath(t *testing.T) {
	assert.Equal(t, "statements/c1/d1/Q1-2024.pdf", StatementPath("c1", "d1", "Q1/2024.pdf"))
	assert.Equal(t, "statements/c1/d1/statement", StatementPath("c1", "d1", "  "))
}

func TestMemoryArchive(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryArchive()

	_, err := a.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Error(t, a.Put(ctx, "", []byte("x"), ""))

	data := []byte("%PDF-1.4")
	require.NoError(t, a.Put(ctx, "statements/a/b/c.pdf", data, "application/pdf"))
	data[0] = 'X'

	got, err := a.Get(ctx, "statements/a/b/c.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(got))
}

func TestExportZip(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryArchive()
	require.NoError(t, a.Put(ctx, "p1", []byte("pdf bytes"), "application/pdf"))
	require.NoError(t, a.Put(ctx, "p2", []byte("xlsx bytes"), ""))

	day := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	docs := []*model.Document{
		{ID: "1", Filename: "marzo.pdf", Kind: model.DocumentKindPDF, StoragePath: "p1", UploadedAt: day},
		{ID: "2", Filename: "cartera.xlsx", Kind: model.DocumentKindWorkbook, StoragePath: "p2", UploadedAt: day},
		{ID: "3", Filename: "perdido.pdf", Kind: model.DocumentKindPDF, StoragePath: "gone", UploadedAt: day},
	}

	out, n, err := ExportZip(ctx, a, docs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "extractos/2024-03-31_marzo.pdf", zr.File[0].Name)
	assert.Equal(t, "hojas/2024-03-31_cartera.xlsx", zr.File[1].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(body))
}
