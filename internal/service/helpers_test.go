package service

import (
	"context"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/castlemilk/wealthportal/backend/internal/archive"
	"github.com/castlemilk/wealthportal/backend/internal/auth"
	"github.com/castlemilk/wealthportal/backend/internal/chat"
	"github.com/castlemilk/wealthportal/backend/internal/extraction"
	"github.com/castlemilk/wealthportal/backend/internal/facts"
	"github.com/castlemilk/wealthportal/backend/internal/intent"
	"github.com/castlemilk/wealthportal/backend/internal/llm"
	"github.com/castlemilk/wealthportal/backend/internal/model"
	"github.com/castlemilk/wealthportal/backend/internal/search"
	"github.com/castlemilk/wealthportal/backend/internal/store"
)

// testContextWithUser creates a context with authenticated client claims for testing
func testContextWithUser(userID string) context.Context {
	return auth.WithUserClaims(context.Background(), &auth.UserClaims{
		UID:   userID,
		Email: userID + "@test.local",
		Role:  model.RoleClient,
	})
}

// testContextWithAdmin creates a context with authenticated admin claims for testing
func testContextWithAdmin(userID string) context.Context {
	return auth.WithUserClaims(context.Background(), &auth.UserClaims{
		UID:   userID,
		Email: userID + "@test.local",
		Role:  model.RoleAdmin,
	})
}

type testEnv struct {
	svc        *PortalService
	store      *store.MemoryStore
	archive    *archive.MemoryArchive
	extraction *extraction.ExtractionService
}

// replyStreamer answers every model turn with a fixed text.
type replyStreamer struct {
	reply string
}

func (r replyStreamer) Stream(_ context.Context, _ []llm.Message, _ llm.Options, onText func(string) error) (*llm.Usage, error) {
	if err := onText(r.reply); err != nil {
		return nil, err
	}
	return &llm.Usage{PromptTokens: 10, CompletionTokens: 3, TotalTokens: 13}, nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ms := store.NewMemoryStore()
	ext := extraction.NewExtractionService(extraction.Config{DraftTTL: time.Hour})
	t.Cleanup(ext.Close)
	arc := archive.NewMemoryArchive()
	builder := facts.NewBuilder(ms, nil)

	svc := NewPortalService(Deps{
		Store:      ms,
		Extraction: ext,
		Archive:    arc,
		Facts:      builder,
		Chat:       chat.NewOrchestrator(builder, intent.NewRouter(nil), replyStreamer{reply: "Respuesta del modelo"}, ms, chat.Config{}),
		Directory:  search.NewStoreDirectory(ms),
	})
	return &testEnv{svc: svc, store: ms, archive: arc, extraction: ext}
}

// workbookBytes builds a minimal statement workbook with a totals row.
func workbookBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", extraction.SheetTotals))
	require.NoError(t, f.SetSheetRow(extraction.SheetTotals, "A1", &[]any{"total", 100000, 5000, -20000, 85000}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func requireCode(t *testing.T, err error, code connect.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, connect.CodeOf(err), err.Error())
}
