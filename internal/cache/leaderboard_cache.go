package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"beatline/internal/model"
)

// LeaderboardCache mirrors session leaderboards into Redis ZSETs so other
// consumers can read standings without touching game state. The in-memory
// store stays the source of truth; this is a write-through copy.
type LeaderboardCache interface {
	UpdateScore(ctx context.Context, sessionID, playerID string, score int) error
	GetTop(ctx context.Context, sessionID string, limit int) ([]model.LeaderboardEntry, error)
	GetRank(ctx context.Context, sessionID, playerID string) (int64, error)
	Clear(ctx context.Context, sessionID string) error
}

type leaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{
		client: client,
	}
}

func (c *leaderboardCache) key(sessionID string) string {
	return fmt.Sprintf("session:%s:lb", sessionID)
}

func (c *leaderboardCache) UpdateScore(ctx context.Context, sessionID, playerID string, score int) error {
	return c.client.ZAdd(ctx, c.key(sessionID), redis.Z{
		Score:  float64(score),
		Member: playerID,
	}).Err()
}

func (c *leaderboardCache) GetTop(ctx context.Context, sessionID string, limit int) ([]model.LeaderboardEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(sessionID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, len(results))
	for i, z := range results {
		entries[i] = model.LeaderboardEntry{
			PlayerID: z.Member.(string),
			Score:    int(z.Score),
			Rank:     i + 1,
		}
	}
	return entries, nil
}

func (c *leaderboardCache) GetRank(ctx context.Context, sessionID, playerID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, c.key(sessionID), playerID).Result()
	if err != nil {
		return 0, err
	}
	return rank + 1, nil
}

func (c *leaderboardCache) Clear(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.key(sessionID)).Err()
}
