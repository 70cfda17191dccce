package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateUserCache drops all cached views of one identity. Called on every
// profile or credential write so stale profiles never outlive a change.
func InvalidateUserCache(ctx context.Context, cm *CacheManager, userID, email string) {
	SafeDelete(ctx, cm.User,
		fmt.Sprintf("id:%s", userID),
		fmt.Sprintf("email:%s", email))
	SafeDelete(ctx, cm.Exists, fmt.Sprintf("email:%s", email))
	SafeInvalidatePattern(ctx, cm.User, "list:*")
}
