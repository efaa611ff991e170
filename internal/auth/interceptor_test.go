package auth

import (
	"context"
	"errors"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

func TestExtractTokenFromHeader(t *testing.T) {
	tests := []struct {
		name        string
		authHeader  string
		expectedErr bool
		errContains string
		wantToken   string
	}{
		{
			name:        "empty header",
			authHeader:  "",
			expectedErr: true,
			errContains: "authorization header is required",
		},
		{
			name:        "no bearer prefix",
			authHeader:  "token123",
			expectedErr: true,
			errContains: "must be Bearer token",
		},
		{
			name:        "wrong prefix",
			authHeader:  "Basic token123",
			expectedErr: true,
			errContains: "must be Bearer token",
		},
		{
			name:        "bearer only no token",
			authHeader:  "Bearer",
			expectedErr: true,
			errContains: "must be Bearer token",
		},
		{
			name:        "valid bearer token",
			authHeader:  "Bearer mytoken123",
			expectedErr: false,
			wantToken:   "mytoken123",
		},
		{
			name:        "bearer lowercase",
			authHeader:  "bearer mytoken456",
			expectedErr: false,
			wantToken:   "mytoken456",
		},
		{
			name:        "bearer mixed case",
			authHeader:  "BEARER mytoken789",
			expectedErr: false,
			wantToken:   "mytoken789",
		},
		{
			name:        "token with spaces",
			authHeader:  "Bearer token with spaces",
			expectedErr: false,
			wantToken:   "token with spaces",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := ExtractTokenFromHeader(tt.authHeader)

			if tt.expectedErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Empty(t, token)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
			}
		})
	}
}

func TestContextUserClaims(t *testing.T) {
	t.Run("WithUserClaims adds claims to context", func(t *testing.T) {
		ctx := context.Background()
		claims := &UserClaims{
			UID:         "test-uid",
			Email:       "test@example.com",
			DisplayName: "Test User",
			Picture:     "https://example.com/pic.jpg",
			Verified:    true,
		}

		newCtx := WithUserClaims(ctx, claims)

		retrievedClaims, ok := GetUserClaims(newCtx)
		require.True(t, ok)
		assert.Equal(t, claims.UID, retrievedClaims.UID)
		assert.Equal(t, claims.Email, retrievedClaims.Email)
		assert.Equal(t, claims.DisplayName, retrievedClaims.DisplayName)
		assert.Equal(t, claims.Picture, retrievedClaims.Picture)
		assert.Equal(t, claims.Verified, retrievedClaims.Verified)
	})

	t.Run("GetUserClaims returns false for empty context", func(t *testing.T) {
		ctx := context.Background()

		claims, ok := GetUserClaims(ctx)
		assert.False(t, ok)
		assert.Nil(t, claims)
	})

	t.Run("GetUserID returns UID when claims exist", func(t *testing.T) {
		ctx := context.Background()
		claims := &UserClaims{UID: "user-123"}
		ctx = WithUserClaims(ctx, claims)

		uid, ok := GetUserID(ctx)
		assert.True(t, ok)
		assert.Equal(t, "user-123", uid)
	})

	t.Run("GetUserID returns empty for empty context", func(t *testing.T) {
		ctx := context.Background()

		uid, ok := GetUserID(ctx)
		assert.False(t, ok)
		assert.Empty(t, uid)
	})
}

func TestIsPublicEndpoint(t *testing.T) {
	tests := []struct {
		name      string
		procedure string
		expected  bool
	}{
		{"health endpoint", "/health", true},
		{"ping endpoint", "/ping", true},
		{"portal service endpoint", "/wealthportal.v1.PortalService/GetFacts", false},
		{"other endpoint", "/api/v1/users", false},
		{"empty endpoint", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isPublicEndpoint(tt.procedure)
			assert.Equal(t, tt.expected, result)
		})
	}
}

type fakeVerifier map[string]*UserClaims

func (f fakeVerifier) VerifyToken(_ context.Context, token string) (*UserClaims, error) {
	if c, ok := f[token]; ok {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

func callUnary(t *testing.T, i *Interceptor, header map[string]string) (*UserClaims, error) {
	t.Helper()
	req := connect.NewRequest(&struct{}{})
	for k, v := range header {
		req.Header().Set(k, v)
	}
	var seen *UserClaims
	next := func(ctx context.Context, _ connect.AnyRequest) (connect.AnyResponse, error) {
		seen, _ = GetUserClaims(ctx)
		return nil, nil
	}
	_, err := i.WrapUnary(next)(context.Background(), req)
	return seen, err
}

func TestAuthInterceptor(t *testing.T) {
	i := NewAuthInterceptor(fakeVerifier{
		"admin-token":  {UID: "admin-1", Role: model.RoleAdmin},
		"client-token": {UID: "client-1", Role: model.RoleClient},
	})

	t.Run("missing header is unauthenticated", func(t *testing.T) {
		_, err := callUnary(t, i, nil)
		require.Error(t, err)
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("invalid token is unauthenticated", func(t *testing.T) {
		_, err := callUnary(t, i, map[string]string{"Authorization": "Bearer nope"})
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("valid token puts claims in context", func(t *testing.T) {
		claims, err := callUnary(t, i, map[string]string{"Authorization": "Bearer admin-token"})
		require.NoError(t, err)
		require.NotNil(t, claims)
		assert.Equal(t, "admin-1", claims.UID)
		assert.True(t, claims.IsAdmin())
	})

	t.Run("debug headers are ignored", func(t *testing.T) {
		_, err := callUnary(t, i, map[string]string{"X-Debug-Impersonate-User": "someone"})
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})
}

func TestDebugAuthInterceptor(t *testing.T) {
	i := DebugAuthInterceptor()

	claims, err := callUnary(t, i, nil)
	require.NoError(t, err)
	assert.Nil(t, claims, "no header leaves the request anonymous")

	claims, err = callUnary(t, i, map[string]string{"X-Debug-Impersonate-User": "client-9"})
	require.NoError(t, err)
	require.NotNil(t, claims)
	assert.Equal(t, "client-9", claims.UID)
	assert.Equal(t, model.RoleClient, claims.Role)

	claims, err = callUnary(t, i, map[string]string{"X-Debug-Impersonate-User": "boss", "X-Debug-Role": "admin"})
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
}

func TestLocalDevInterceptor(t *testing.T) {
	i := LocalDevInterceptor()

	claims, err := callUnary(t, i, nil)
	require.NoError(t, err)
	require.NotNil(t, claims)
	assert.Equal(t, "local-dev-user", claims.UID)
	assert.True(t, claims.IsAdmin())

	claims, err = callUnary(t, i, map[string]string{"X-Debug-Impersonate-User": "client-2"})
	require.NoError(t, err)
	assert.Equal(t, "client-2", claims.UID)
	assert.False(t, claims.IsAdmin())
}

func TestClaimsFromToken(t *testing.T) {
	claims := claimsFromToken("uid-1", map[string]interface{}{
		"email":          "ana@example.com",
		"email_verified": true,
		"name":           "Ana",
		"picture":        "https://example.com/a.png",
		"role":           "admin",
	})
	assert.Equal(t, "uid-1", claims.UID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, "Ana", claims.DisplayName)
	assert.Equal(t, "https://example.com/a.png", claims.Picture)
	assert.True(t, claims.Verified)
	assert.Equal(t, model.RoleAdmin, claims.Role)

	partial := claimsFromToken("uid-2", map[string]interface{}{"email": "b@example.com"})
	assert.Empty(t, partial.DisplayName)
	assert.False(t, partial.Verified)
	assert.Equal(t, model.RoleClient, partial.Role)
}
