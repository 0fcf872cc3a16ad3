package sim

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pthm-cable/slither/config"
)

// Instance describes one simulation to run inside a batch.
type Instance struct {
	Name     string
	Config   *config.Config
	Seed     int64
	MaxTicks int64
	// Observer, when set, is called with the freshly built simulation
	// before it starts, typically to consume its event stream.
	Observer func(*Simulation)
}

// RunBatch runs the given instances on up to workers goroutines. Every
// instance gets its own world, RNG and innovation history, so results are
// reproducible per seed regardless of scheduling. Results come back in
// instance order.
func RunBatch(ctx context.Context, instances []Instance, workers int, log *slog.Logger) []Result {
	if workers < 1 {
		workers = 1
	}
	if workers > len(instances) {
		workers = len(instances)
	}

	results := make([]Result, len(instances))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				inst := instances[idx]
				s := New(inst.Name, inst.Config, inst.Seed, log)
				if inst.Observer != nil {
					inst.Observer(s)
				}
				results[idx] = s.Run(ctx, inst.MaxTicks)
			}
		}()
	}

	for idx := range instances {
		select {
		case <-ctx.Done():
			// Unqueued instances stay zero-valued in the results.
			results[idx] = Result{Name: instances[idx].Name, Seed: instances[idx].Seed, Reason: "cancelled", Cancelled: true}
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	return results
}
