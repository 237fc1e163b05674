package middleware

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/clipmint/reelsbot/internal/domain"
	"github.com/clipmint/reelsbot/internal/service"
)

type ctxKey string

const (
	UserKey    ctxKey = "user"
	NewUserKey ctxKey = "new_user"
)

// GetUser extracts the loaded user from context.
func GetUser(ctx context.Context) *domain.User {
	u, ok := ctx.Value(UserKey).(*domain.User)
	if !ok {
		return nil
	}
	return u
}

// IsNewUser reports whether the user record was created by this update.
func IsNewUser(ctx context.Context) bool {
	created, ok := ctx.Value(NewUserKey).(bool)
	return ok && created
}

// UserLoader returns middleware that loads (or creates) the user record and
// puts it into context.
func UserLoader(userService *service.UserService) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			var from *models.User

			if update.Message != nil {
				from = update.Message.From
			} else if update.CallbackQuery != nil {
				from = &update.CallbackQuery.From
			} else if update.PreCheckoutQuery != nil {
				from = update.PreCheckoutQuery.From
			}

			if from == nil {
				next(ctx, b, update)
				return
			}

			user, created, err := userService.FindOrCreate(ctx, from.ID, from.Username)
			if err == nil && user != nil {
				ctx = context.WithValue(ctx, UserKey, user)
				ctx = context.WithValue(ctx, NewUserKey, created)
			}

			next(ctx, b, update)
		}
	}
}
