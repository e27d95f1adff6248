package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/linhthach/sanctum/internal/api/metrics"
	"github.com/linhthach/sanctum/internal/core/domain"
	"github.com/linhthach/sanctum/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// GameLogDispatcher flushes earn-game play records to storage off the
// request path. Records are sharded onto workers by userID so one user's
// history stays in play order.
type GameLogDispatcher struct {
	workers []chan domain.GameLog
	repo    ports.GameLogRepository
	log     zerolog.Logger
}

// NewGameLogDispatcher creates a dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewGameLogDispatcher(numWorkers int, repo ports.GameLogRepository, log zerolog.Logger) *GameLogDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &GameLogDispatcher{
		workers: make([]chan domain.GameLog, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.GameLog, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *GameLogDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Record enqueues a play record on the worker owning its userID. Never
// blocks: when the worker's queue is full the record is dropped and logged.
func (d *GameLogDispatcher) Record(log domain.GameLog) {
	shard := d.shardIndex(log.UserID)
	select {
	case d.workers[shard] <- log:
		metrics.GameLogQueueDepth.WithLabelValues(strconv.Itoa(shard)).Set(float64(len(d.workers[shard])))
	default:
		d.log.Warn().Str("user_id", log.UserID).Msg("game log queue full, record dropped")
	}
}

// shardIndex maps a userID deterministically to a worker index.
func (d *GameLogDispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *GameLogDispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.GameLog) {
	for {
		select {
		case <-ctx.Done():
			return
		case record, ok := <-ch:
			if !ok {
				return
			}
			metrics.GameLogQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
			if err := d.repo.Insert(ctx, &record); err != nil {
				d.log.Error().Err(err).
					Str("user_id", record.UserID).
					Str("game", string(record.GameType)).
					Int("worker_id", id).
					Msg("game log write failed")
			}
		}
	}
}
