package httpapi

import (
	"context"

	"github.com/google/uuid"

	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/user"
)

type authContextKey string

const (
	authUserKey    authContextKey = "authUser"
	authSessionKey authContextKey = "authSession"
)

// AuthUser represents the authenticated user in context.
type AuthUser struct {
	UserID    uuid.UUID
	Username  string
	Role      user.Role
	SessionID uuid.UUID
}

// Actor converts the authenticated user into a command actor.
func (u AuthUser) Actor() user.Actor {
	return user.Actor{UserID: u.UserID, Name: u.Username, Role: u.Role}
}

func withAuthUser(ctx context.Context, u *AuthUser) context.Context {
	if u == nil {
		return ctx
	}
	return context.WithValue(ctx, authUserKey, u)
}

func authUserFromContext(ctx context.Context) *AuthUser {
	val := ctx.Value(authUserKey)
	if v, ok := val.(*AuthUser); ok {
		return v
	}
	return nil
}
