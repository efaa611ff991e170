package auth

import (
	"context"
	"fmt"

	"connectrpc.com/connect"
)

// RequireAuth extracts user claims from context or returns an unauthenticated error
func RequireAuth(ctx context.Context) (*UserClaims, error) {
	claims, ok := GetUserClaims(ctx)
	if !ok {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("user not authenticated"))
	}
	return claims, nil
}

// RequireAdmin returns the claims of an authenticated administrator.
func RequireAdmin(ctx context.Context) (*UserClaims, error) {
	claims, err := RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if !claims.IsAdmin() {
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("admin role required"))
	}
	return claims, nil
}

// RequireClientAccess verifies the caller may read data of clientID.
// Administrators may read any client; clients only themselves. An empty
// clientID means the caller's own data.
func RequireClientAccess(ctx context.Context, clientID string) (*UserClaims, error) {
	claims, err := RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if clientID == "" || clientID == claims.UID || claims.IsAdmin() {
		return claims, nil
	}
	return nil, connect.NewError(connect.CodePermissionDenied,
		fmt.Errorf("cannot access another user's resources"))
}

// NormalizePageSize returns a valid page size (default 20, max 100)
func NormalizePageSize(pageSize int32) int32 {
	if pageSize <= 0 {
		return 20
	}
	if pageSize > 100 {
		return 100
	}
	return pageSize
}

// WrapStoreError wraps store errors with operation context
func WrapStoreError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to %s: %w", operation, err)
}
