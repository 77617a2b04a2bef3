package rate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const numPrewarmWorkers = 4

// PrewarmRates refreshes the cache for every listed base currency using a small
// worker pool, treating maxAge as the freshness bound so a currency refreshed
// recently (for example by an interactive lookup) is not fetched again.
// Returns the number of currencies that could not be refreshed.
func PrewarmRates(ctx context.Context, execID string, cache *Cache, currencies []string, maxAge time.Duration) int {
	if len(currencies) == 0 {
		return 0
	}
	logrus.Infof("Prewarming %d currencies; execID: %s", len(currencies), execID)

	workQueue := make(chan string, len(currencies))
	for _, base := range currencies {
		workQueue <- base
	}
	close(workQueue)

	var failed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < numPrewarmWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			runPrewarmWorker(ctx, workerID, workQueue, cache, maxAge, &failed)
		}(i)
	}
	wg.Wait()

	logrus.Infof("Prewarm finished, %d of %d failed; execID: %s", failed.Load(), len(currencies), execID)
	return int(failed.Load())
}

func runPrewarmWorker(ctx context.Context, workerID int, workQueue <-chan string, cache *Cache, maxAge time.Duration, failed *atomic.Int64) {
	for {
		select {
		case <-ctx.Done():
			return
		case base, ok := <-workQueue:
			if !ok {
				return
			}
			res, err := cache.GetLatest(ctx, base, maxAge)
			if err != nil {
				failed.Add(1)
				logrus.WithError(err).WithFields(logrus.Fields{"worker": workerID, "base": base}).Error("Prewarm refresh failed")
				continue
			}
			if res.Degraded {
				failed.Add(1)
				logrus.WithFields(logrus.Fields{"worker": workerID, "base": base}).Warn("Prewarm served only a stale snapshot")
			}
		}
	}
}
