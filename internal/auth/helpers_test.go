package auth

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

func TestRequireAuth(t *testing.T) {
	t.Run("returns error when no claims in context", func(t *testing.T) {
		claims, err := RequireAuth(context.Background())
		assert.Nil(t, claims)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unauthenticated")
	})

	t.Run("returns claims when present in context", func(t *testing.T) {
		ctx := withUserClaims(context.Background(), &UserClaims{UID: "user-123", Email: "test@example.com"})

		claims, err := RequireAuth(ctx)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.UID)
		assert.Equal(t, "test@example.com", claims.Email)
	})
}

func TestRequireAdmin(t *testing.T) {
	_, err := RequireAdmin(context.Background())
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	client := withUserClaims(context.Background(), &UserClaims{UID: "c1", Role: model.RoleClient})
	_, err = RequireAdmin(client)
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

	admin := withUserClaims(context.Background(), &UserClaims{UID: "a1", Role: model.RoleAdmin})
	claims, err := RequireAdmin(admin)
	require.NoError(t, err)
	assert.Equal(t, "a1", claims.UID)
}

func TestRequireClientAccess(t *testing.T) {
	client := withUserClaims(context.Background(), &UserClaims{UID: "c1", Role: model.RoleClient})
	admin := withUserClaims(context.Background(), &UserClaims{UID: "a1", Role: model.RoleAdmin})

	tests := []struct {
		name     string
		ctx      context.Context
		clientID string
		wantCode connect.Code
	}{
		{"anonymous", context.Background(), "c1", connect.CodeUnauthenticated},
		{"client reads self", client, "c1", 0},
		{"client implicit self", client, "", 0},
		{"client reads other", client, "c2", connect.CodePermissionDenied},
		{"admin reads anyone", admin, "c2", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := RequireClientAccess(tt.ctx, tt.clientID)
			if tt.wantCode == 0 {
				require.NoError(t, err)
				assert.NotNil(t, claims)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, connect.CodeOf(err))
		})
	}
}

func TestRoleFromClaims(t *testing.T) {
	assert.Equal(t, model.RoleAdmin, RoleFromClaims(map[string]interface{}{"role": "admin"}))
	assert.Equal(t, model.RoleClient, RoleFromClaims(map[string]interface{}{"role": "superuser"}))
	assert.Equal(t, model.RoleClient, RoleFromClaims(map[string]interface{}{"role": 1}))
	assert.Equal(t, model.RoleClient, RoleFromClaims(nil))
}

func TestNormalizePageSize(t *testing.T) {
	assert.Equal(t, int32(20), NormalizePageSize(0))
	assert.Equal(t, int32(20), NormalizePageSize(-5))
	assert.Equal(t, int32(50), NormalizePageSize(50))
	assert.Equal(t, int32(100), NormalizePageSize(500))
}

func TestWrapStoreError(t *testing.T) {
	assert.NoError(t, WrapStoreError("load report", nil))
	err := WrapStoreError("load report", assert.AnError)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failed to load report")
}
