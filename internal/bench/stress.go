package bench

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/plus3/flatecs/ecs"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// StressOptions configures a Stress run.
type StressOptions struct {
	Store          ecs.Config
	Duration       time.Duration
	Entities       int
	Systems        int
	Seed           uint64
	GCPauseMetrics bool
	// Churn is the chance per visited entity that a system replaces it with
	// a freshly spawned one through the frame's command buffer.
	Churn float64
}

// churnSystem touches one kind on every entity matching its query and
// occasionally recycles the entity.
type churnSystem struct {
	Entities ecs.Query

	name  string
	kind  ecs.Kind
	rng   *rand.Rand
	churn float64
	cfg   ecs.Config
}

func (s *churnSystem) Name() string {
	return s.name
}

func (s *churnSystem) Execute(frame *ecs.UpdateFrame) {
	for e := range s.Entities.Iter() {
		frame.Storage.GetComponent(e, s.kind)[0]++
		if s.rng.Float64() < s.churn {
			frame.Commands.Delete(e)
			frame.Commands.Spawn(randomComponents(s.rng, s.cfg)...)
		}
	}
}

// randomComponents picks one to five distinct kinds with random payloads.
func randomComponents(rng *rand.Rand, cfg ecs.Config) []ecs.ComponentData {
	n := min(rng.IntN(5)+1, cfg.MaxComponentKinds)
	picked := rng.Perm(cfg.MaxComponentKinds)[:n]
	out := make([]ecs.ComponentData, n)
	for i, k := range picked {
		data := make([]byte, cfg.MaxComponentSize)
		for j := range data {
			data[j] = byte(rng.UintN(256))
		}
		out[i] = ecs.ComponentData{Kind: ecs.Kind(k), Data: data}
	}
	return out
}

// Stress populates a store with random entities and drives synthetic systems
// through a Scheduler as fast as possible until opts.Duration elapses or ctx
// is cancelled.
func Stress(ctx context.Context, opts StressOptions, log *zap.Logger) (*StressReport, error) {
	storage, err := ecs.NewStorage(opts.Store)
	if err != nil {
		return nil, eris.Wrap(err, "stress")
	}
	if opts.Entities > opts.Store.MaxEntities {
		return nil, eris.Errorf("stress: %d entities exceed capacity %d", opts.Entities, opts.Store.MaxEntities)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	scheduler := ecs.NewScheduler(storage, ecs.WithLogger(log))
	for i := range opts.Systems {
		kind := ecs.Kind(rng.IntN(opts.Store.MaxComponentKinds))
		kinds := []ecs.Kind{kind}
		if rng.IntN(2) == 0 {
			kinds = append(kinds, ecs.Kind(rng.IntN(opts.Store.MaxComponentKinds)))
		}
		scheduler.Register(&churnSystem{
			Entities: ecs.NewQuery(kinds...),
			name:     fmt.Sprintf("churn-%02d", i),
			kind:     kind,
			rng:      rng,
			churn:    opts.Churn,
			cfg:      opts.Store,
		})
	}

	log.Info("populating storage", zap.Int("entities", opts.Entities))
	for range opts.Entities {
		if _, err := storage.Spawn(randomComponents(rng, opts.Store)...); err != nil {
			return nil, eris.Wrap(err, "stress populate")
		}
	}

	report := &StressReport{
		Duration:       opts.Duration,
		Entities:       opts.Entities,
		Capacity:       opts.Store.MaxEntities,
		ComponentKinds: opts.Store.MaxComponentKinds,
		Systems:        opts.Systems,
		GCPauseMetrics: opts.GCPauseMetrics,
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	log.Info("running simulation", zap.Duration("duration", opts.Duration), zap.Int("systems", opts.Systems))
	ctx, cancel := context.WithTimeout(ctx, opts.Duration)
	defer cancel()

	startTime := time.Now()
	lastFrameTime := startTime

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			if err := scheduler.Once(deltaTime.Seconds()); err != nil {
				report.FlushErrors++
				log.Debug("flush failed", zap.Error(err))
			}
			report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
			report.TotalUpdates++
		}
	}

	report.TotalTime = time.Since(startTime)
	report.LiveEntities = storage.Len()
	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	log.Info("simulation finished", zap.Int64("updates", report.TotalUpdates), zap.Int64("flush_errors", report.FlushErrors))
	return report, nil
}
