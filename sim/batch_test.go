package sim

import (
	"context"
	"testing"
	"time"

	"github.com/pthm-cable/slither/config"
)

func batchConfig() *config.Config {
	cfg := testConfig()
	cfg.Population.StartingSnakes = 10
	cfg.Population.StartingFood = 20
	cfg.Food.PerStep = 1
	cfg.Engine.StopWhenExtinct = false
	return cfg
}

func TestBatchInstancesAreIsolated(t *testing.T) {
	cfg := batchConfig()
	instances := []Instance{
		{Name: "a", Config: cfg, Seed: 99, MaxTicks: 50},
		{Name: "b", Config: cfg, Seed: 99, MaxTicks: 50},
	}

	results := RunBatch(context.Background(), instances, 2, nil)

	if len(results) != 2 {
		t.Fatalf("result count = %d, want 2", len(results))
	}
	a, b := results[0].Final, results[1].Final
	if a.Snakes != b.Snakes || a.Segments != b.Segments ||
		a.Births != b.Births || a.Deaths != b.Deaths ||
		a.TotalEnergy != b.TotalEnergy {
		t.Errorf("same seed diverged:\n a=%+v\n b=%+v", a, b)
	}
	if results[0].Steps != 50 || results[1].Steps != 50 {
		t.Errorf("steps = %d/%d, want 50/50", results[0].Steps, results[1].Steps)
	}
}

func TestBatchDifferentSeedsDiverge(t *testing.T) {
	cfg := batchConfig()
	instances := []Instance{
		{Name: "a", Config: cfg, Seed: 1, MaxTicks: 50},
		{Name: "b", Config: cfg, Seed: 2, MaxTicks: 50},
	}

	results := RunBatch(context.Background(), instances, 1, nil)

	if results[0].Final.TotalEnergy == results[1].Final.TotalEnergy &&
		results[0].Final.Births == results[1].Final.Births {
		t.Error("different seeds produced identical worlds")
	}
}

func TestRunStopsOnCommand(t *testing.T) {
	cfg := batchConfig()
	s := New("stop-test", cfg, 5, nil)

	s.Commands() <- Stop{}
	result := s.Run(context.Background(), 0)

	if result.Reason != "stopped" {
		t.Errorf("reason = %q, want stopped", result.Reason)
	}
}

func TestRunStopsWhenExtinct(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.StopWhenExtinct = true
	s := New("extinct-test", cfg, 5, nil)

	result := s.Run(context.Background(), 100)

	if result.Reason != "extinct" {
		t.Errorf("reason = %q, want extinct", result.Reason)
	}
	if result.Steps != 1 {
		t.Errorf("steps = %d, want 1", result.Steps)
	}
}

func TestRunEmitsFinalEvent(t *testing.T) {
	cfg := batchConfig()
	s := New("event-test", cfg, 5, nil)

	done := make(chan SimulationFinished, 1)
	go func() {
		for ev := range s.Events() {
			if fin, ok := ev.(SimulationFinished); ok {
				done <- fin
				return
			}
		}
	}()

	result := s.Run(context.Background(), 10)

	select {
	case fin := <-done:
		if fin.Reason != result.Reason {
			t.Errorf("event reason = %q, result reason = %q", fin.Reason, result.Reason)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no SimulationFinished event within timeout")
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	cfg := batchConfig()
	s := New("cancel-test", cfg, 5, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := s.Run(ctx, 0)
	if !result.Cancelled {
		t.Error("cancelled context did not cancel the run")
	}
}

func TestSetSpeedStillHonorsTickLimit(t *testing.T) {
	cfg := batchConfig()
	s := New("speed-test", cfg, 5, nil)

	s.Commands() <- SetSpeed{StepsPerIteration: 4}
	result := s.Run(context.Background(), 10)

	if result.Steps != 10 {
		t.Errorf("steps = %d, want exactly 10", result.Steps)
	}
}

func TestAddAgentsCommand(t *testing.T) {
	cfg := batchConfig()
	cfg.Population.StartingSnakes = 0
	s := newTestSim(t, cfg, 5)

	s.handleCommand(AddAgents{Count: 5})
	s.Step()

	if got := s.Stats().Snakes; got != 5 {
		t.Errorf("snakes after AddAgents = %d, want 5", got)
	}
}
