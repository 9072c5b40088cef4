package bot

import (
	"context"
	"fmt"
	"strconv"

	"vkgram/pkg/types"
)

// GetUser resolves a user record, serving repeat lookups from the TTL cache.
func (b *Bot) GetUser(ctx context.Context, userID int64) (*types.User, error) {
	key := "user:" + strconv.FormatInt(userID, 10)
	if cached, ok := b.users.Get(key); ok {
		if user, ok := cached.(*types.User); ok {
			return user, nil
		}
	}

	records, err := b.api.GetUsers(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("user %d not found", userID)
	}

	user := &records[0]
	b.users.Set(key, user, 0)
	return user, nil
}
