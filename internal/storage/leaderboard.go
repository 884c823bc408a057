package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/steprace/backend/internal/game"
)

const winsKey = "steprace:wins"

// Leaderboard keeps a running win count per player name in a Redis sorted
// set. Names are not unique identities, so this is a vanity board, not an
// account system.
type Leaderboard struct {
	client *redis.Client
}

func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

// RecordFinish credits the winner of a race. CPU wins are not recorded.
func (l *Leaderboard) RecordFinish(ctx context.Context, room string, ranking []game.RankEntry) error {
	if len(ranking) == 0 {
		return nil
	}
	winner := ranking[0]
	if winner.CPU {
		return nil
	}
	if err := l.client.ZIncrBy(ctx, winsKey, 1, winner.Name).Err(); err != nil {
		return fmt.Errorf("recording win for %q in room %q: %w", winner.Name, room, err)
	}
	return nil
}

type Entry struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

// Top returns the n highest win counts, best first.
func (l *Leaderboard) Top(ctx context.Context, n int) ([]Entry, error) {
	if n < 1 {
		n = 1
	}
	scores, err := l.client.ZRevRangeWithScores(ctx, winsKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(scores))
	for _, z := range scores {
		name, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, Entry{Name: name, Wins: int(z.Score)})
	}
	return entries, nil
}
