package service

import (
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/castlemilk/wealthportal/backend/internal/archive"
	"github.com/castlemilk/wealthportal/backend/internal/billing"
	"github.com/castlemilk/wealthportal/backend/internal/chat"
	"github.com/castlemilk/wealthportal/backend/internal/extraction"
	"github.com/castlemilk/wealthportal/backend/internal/store"
)

// toConnectError maps domain errors to Connect-RPC error codes.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}

	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	var extErr *extraction.ExtractionError
	if errors.As(err, &extErr) {
		return mapExtractionError(extErr)
	}

	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, archive.ErrNotFound),
		errors.Is(err, extraction.ErrDraftNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, billing.ErrNotLinked):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, chat.ErrBusy):
		return connect.NewError(connect.CodeResourceExhausted, err)
	case errors.Is(err, chat.ErrInvalidInput):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// mapExtractionError maps extraction errors to Connect-RPC error codes.
func mapExtractionError(extErr *extraction.ExtractionError) *connect.Error {
	switch extErr.Code {
	case extraction.ErrInvalidDocument, extraction.ErrUnsupportedFormat, extraction.ErrEmptyDocument:
		return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%s", extErr.Message))
	case extraction.ErrDocumentUnavailable:
		return connect.NewError(connect.CodeUnavailable, fmt.Errorf("%s", extErr.Message))
	default:
		return connect.NewError(connect.CodeInternal, fmt.Errorf("extraction failed: %s", extErr.Message))
	}
}

func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

func unavailable(format string, args ...any) error {
	return connect.NewError(connect.CodeUnavailable, fmt.Errorf(format, args...))
}
