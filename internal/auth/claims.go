package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

// roleClaim is the Firebase custom claim carrying the portal role.
const roleClaim = "role"

// SetRoleClaim sets the portal role on a Firebase user. The claim is included
// in the user's next ID token.
func (f *FirebaseAuth) SetRoleClaim(ctx context.Context, uid string, role model.Role) error {
	claims := map[string]interface{}{
		roleClaim: string(role),
	}
	if err := f.client.SetCustomUserClaims(ctx, uid, claims); err != nil {
		return fmt.Errorf("set custom claims for user %s: %w", uid, err)
	}
	slog.Info("[auth] updated role claim", "uid", uid, "role", role)
	return nil
}

// RoleFromClaims reads the role custom claim. Anything other than an explicit
// admin claim is treated as a client.
func RoleFromClaims(claims map[string]interface{}) model.Role {
	if r, ok := claims[roleClaim].(string); ok && model.Role(r) == model.RoleAdmin {
		return model.RoleAdmin
	}
	return model.RoleClient
}
