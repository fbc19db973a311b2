package middleware

import (
	"context"
	"time"

	"gopkg.in/telebot.v3"
)

// WithContext gives every bot handler a context derived from the
// process root so shutdown cancels in-flight reviews.
func WithContext(rootCtx context.Context, timeout time.Duration, handler func(ctx context.Context, c telebot.Context) error) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		ctx, cancel := context.WithTimeout(rootCtx, timeout)
		defer cancel()

		return handler(ctx, c)
	}
}

// AllowUsers drops updates from senders outside ids. An empty list allows everyone.
func AllowUsers(ids []int64, denied telebot.HandlerFunc) telebot.MiddlewareFunc {
	allowed := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}
	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			if len(allowed) == 0 {
				return next(c)
			}
			if sender := c.Sender(); sender != nil {
				if _, ok := allowed[sender.ID]; ok {
					return next(c)
				}
			}
			return denied(c)
		}
	}
}
