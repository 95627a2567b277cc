// Package bench times the store's core operations and drives synthetic
// scheduler workloads.
package bench

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/plus3/flatecs/ecs"
	"github.com/rotisserie/eris"
)

// Options configures a Run.
type Options struct {
	Store      ecs.Config
	Iterations int
}

// Phase is the average cost of one step of the benchmark cycle.
type Phase struct {
	Name      string
	Detail    string
	AverageNs float64
}

// Result is what Run measured.
type Result struct {
	Config        ecs.Config
	Iterations    int
	SnapshotBytes int
	Phases        []Phase
	// Checksum is the sum of kind 0 after the iterate phase of the last
	// iteration, so the work cannot be optimised away.
	Checksum uint64
}

// Run repeats a full store cycle opts.Iterations times: fill every slot of a
// fresh store, snapshot it to memory, load the snapshot into a second store,
// dispatch a system over every kind and destroy everything.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Iterations < 1 {
		return nil, eris.Errorf("bench: iterations must be positive, got %d", opts.Iterations)
	}
	src, err := ecs.NewStorage(opts.Store)
	if err != nil {
		return nil, eris.Wrap(err, "bench")
	}
	dst := ecs.MustNewStorage(opts.Store)

	cfg := opts.Store
	payload := make([]byte, cfg.MaxComponentSize)
	for i := range payload {
		payload[i] = byte(i)
	}
	all := make([]ecs.Kind, cfg.MaxComponentKinds)
	for k := range all {
		all[k] = ecs.Kind(k)
	}
	everything := ecs.BuildMask(all...)

	var create, add, save, load, iterate, destroy time.Duration
	buf := bytes.NewBuffer(make([]byte, 0, src.SnapshotSize()))
	var checksum uint64

	for iter := 0; iter < opts.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := src.Reset(); err != nil {
			return nil, err
		}

		start := time.Now()
		for range cfg.MaxEntities {
			if _, err := src.CreateEntity(); err != nil {
				return nil, eris.Wrap(err, "bench create")
			}
		}
		create += time.Since(start)

		start = time.Now()
		for e := ecs.Entity(0); int(e) < cfg.MaxEntities; e++ {
			for _, k := range all {
				if err := src.AddComponent(e, k, payload); err != nil {
					return nil, eris.Wrap(err, "bench add")
				}
			}
		}
		add += time.Since(start)

		buf.Reset()
		start = time.Now()
		if err := src.Save(buf); err != nil {
			return nil, err
		}
		save += time.Since(start)

		start = time.Now()
		if err := dst.Load(buf); err != nil {
			return nil, err
		}
		load += time.Since(start)

		checksum = 0
		start = time.Now()
		ecs.Run(dst, incrementFirstWord, &checksum, everything)
		iterate += time.Since(start)

		start = time.Now()
		for e := ecs.Entity(0); int(e) < cfg.MaxEntities; e++ {
			if err := dst.DestroyEntity(e); err != nil {
				return nil, eris.Wrap(err, "bench destroy")
			}
		}
		destroy += time.Since(start)
	}

	n := float64(opts.Iterations)
	avg := func(d time.Duration) float64 { return float64(d.Nanoseconds()) / n }
	ents := cfg.MaxEntities
	return &Result{
		Config:        cfg,
		Iterations:    opts.Iterations,
		SnapshotBytes: src.SnapshotSize(),
		Checksum:      checksum,
		Phases: []Phase{
			{"create", fmt.Sprintf("%d entities", ents), avg(create)},
			{"add", fmt.Sprintf("%d components on each of %d entities", cfg.MaxComponentKinds, ents), avg(add)},
			{"save", fmt.Sprintf("%d byte snapshot", src.SnapshotSize()), avg(save)},
			{"load", fmt.Sprintf("%d byte snapshot", src.SnapshotSize()), avg(load)},
			{"iterate", fmt.Sprintf("%d entities matching %d kinds", ents, cfg.MaxComponentKinds), avg(iterate)},
			{"destroy", fmt.Sprintf("%d entities", ents), avg(destroy)},
		},
	}, nil
}

// incrementFirstWord bumps the leading 32 bits of kind 0, or the leading
// byte when slots are narrower than that.
func incrementFirstWord(s *ecs.Storage, e ecs.Entity, sum *uint64) {
	slot := s.GetComponent(e, 0)
	if len(slot) < 4 {
		slot[0]++
		*sum += uint64(slot[0])
		return
	}
	v := binary.LittleEndian.Uint32(slot) + 1
	binary.LittleEndian.PutUint32(slot, v)
	*sum += uint64(v)
}
