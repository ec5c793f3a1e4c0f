package sink

import (
	"context"
	"fmt"
	"log/slog"

	backend "github.com/redis/go-redis/v9"

	"github.com/roach88/riskflow/internal/result"
)

const defaultRedisPrefix = "riskflow"

// Redis appends encoded rows to one list per run, "<prefix>:results:<runID>".
// Each batch is sent as a MULTI/EXEC pipeline, so it lands whole or not at all.
type Redis struct {
	batcher
	client *backend.Client
	prefix string
}

// NewRedis creates a redis sink on an existing client.
func NewRedis(client *backend.Client, prefix string, batchSize int, logger *slog.Logger) *Redis {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	r := &Redis{client: client, prefix: prefix}
	r.batcher = newBatcher(NameRedis, batchSize, logger, r.writeRows)
	return r
}

// Key returns the list key holding the rows of runID.
func (r *Redis) Key(runID int64) string {
	return fmt.Sprintf("%s:results:%d", r.prefix, runID)
}

func (r *Redis) writeRows(ctx context.Context, rows []result.Row) error {
	pipe := r.client.TxPipeline()
	values := make([]any, 0, len(rows))
	for i, row := range rows {
		values = append(values, row.Encode())
		last := i == len(rows)-1
		if last || rows[i+1].RunID != row.RunID {
			pipe.RPush(ctx, r.Key(row.RunID), values...)
			values = values[:0]
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}

// ReadRows decodes the rows stored for runID.
func (r *Redis) ReadRows(ctx context.Context, runID int64) ([]result.Row, error) {
	lines, err := r.client.LRange(ctx, r.Key(runID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	rows := make([]result.Row, 0, len(lines))
	for _, line := range lines {
		row, err := result.DecodeRow(line)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Close is a no-op; the client is owned by the caller.
func (r *Redis) Close() error { return nil }
