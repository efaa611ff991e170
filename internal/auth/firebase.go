package auth

import (
	"context"
	"fmt"
	"os"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, idToken string) (*UserClaims, error)
}

// FirebaseAuth handles Firebase authentication
type FirebaseAuth struct {
	client *auth.Client
}

// UserClaims represents the authenticated user information
type UserClaims struct {
	UID         string
	Email       string
	DisplayName string
	Picture     string
	Verified    bool
	Role        model.Role
}

// IsAdmin reports whether the user holds the admin role.
func (c *UserClaims) IsAdmin() bool {
	return c != nil && c.Role.IsAdmin()
}

// NewFirebaseAuth creates a new FirebaseAuth instance
func NewFirebaseAuth(ctx context.Context, projectID string) (*FirebaseAuth, error) {
	opts := []option.ClientOption{}

	// Locally a service account key may be provided; on Cloud Run the
	// default credentials are used.
	if creds := getServiceAccountPath(); creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}

	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Auth client: %w", err)
	}

	return &FirebaseAuth{
		client: client,
	}, nil
}

// VerifyToken verifies a Firebase ID token and returns the user claims,
// including the role custom claim.
func (f *FirebaseAuth) VerifyToken(ctx context.Context, idToken string) (*UserClaims, error) {
	token, err := f.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}
	return claimsFromToken(token.UID, token.Claims), nil
}

func claimsFromToken(uid string, raw map[string]interface{}) *UserClaims {
	verified, _ := raw["email_verified"].(bool)
	claims := &UserClaims{
		UID:      uid,
		Verified: verified,
		Role:     RoleFromClaims(raw),
	}
	if email, ok := raw["email"].(string); ok {
		claims.Email = email
	}
	if name, ok := raw["name"].(string); ok {
		claims.DisplayName = name
	}
	if picture, ok := raw["picture"].(string); ok {
		claims.Picture = picture
	}
	return claims
}

// ExtractTokenFromHeader extracts the Bearer token from Authorization header
func ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", fmt.Errorf("authorization header is required")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("authorization header must be Bearer token")
	}

	return parts[1], nil
}

// getServiceAccountPath returns the path to service account key file if available
func getServiceAccountPath() string {
	for _, envVar := range []string{"GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_KEY"} {
		if path := os.Getenv(envVar); path != "" {
			return path
		}
	}
	return ""
}
