package bench

import (
	"io"
	"runtime"
	"text/template"
	"time"
)

const benchTemplate = `# flatecs benchmark

- **Entities:** {{.Config.MaxEntities}}
- **Component kinds:** {{.Config.MaxComponentKinds}}
- **Slot size:** {{.Config.MaxComponentSize}} bytes
- **Snapshot size:** {{.SnapshotBytes}} bytes
- **Iterations:** {{.Iterations}}

## Average per iteration
{{range .Phases}}- {{printf "%-8s" .Name}} {{printf "%14.2f" .AverageNs}} ns  ({{.Detail}})
{{end}}`

const stressTemplate = `
# ECS Stress Test Report

## Test Configuration
- **Run Duration:** {{.Duration}}
- **Initial Entities:** {{.Entities}}
- **Capacity:** {{.Capacity}}
- **Component Kinds:** {{.ComponentKinds}}
- **Generated Systems:** {{.Systems}}

## Performance Results
- **Total Updates:** {{.TotalUpdates}}
- **Total Test Time:** {{.TotalTime}}
- **Flush Errors:** {{.FlushErrors}}
- **Live Entities At End:** {{.LiveEntities}}
- **Update Time (Frame):**
  - **Avg:** {{.UpdateTime.Avg}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}

## Memory Usage (Raw Bytes)
- Heap Alloc:     {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Sys Memory:     {{.MemStatsStart.Sys}} (start) -> {{.MemStatsEnd.Sys}} (end) -> delta: {{bsub .MemStatsEnd.Sys .MemStatsStart.Sys}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{.MemStatsEnd.PauseTotalNs | ns}}
- **Num GC Cycles:** {{ usub .MemStatsEnd.NumGC .MemStatsStart.NumGC }}
{{end}}`

var funcs = template.FuncMap{
	"bsub": func(a, b uint64) int64 {
		return int64(a) - int64(b)
	},
	"usub": func(a, b uint32) uint32 {
		return a - b
	},
	"ns": func(ns uint64) string {
		return time.Duration(ns).String()
	},
}

var (
	benchReport  = template.Must(template.New("bench").Funcs(funcs).Parse(benchTemplate))
	stressReport = template.Must(template.New("stress").Funcs(funcs).Parse(stressTemplate))
)

// Render writes the benchmark report as markdown.
func (r *Result) Render(w io.Writer) error {
	return benchReport.Execute(w, r)
}

// StressReport collects the configuration and results of a Stress run.
type StressReport struct {
	// Configuration
	Duration       time.Duration
	Entities       int
	Capacity       int
	ComponentKinds int
	Systems        int

	// Results
	TotalUpdates   int64
	TotalTime      time.Duration
	FlushErrors    int64
	LiveEntities   int
	UpdateTime     Stats
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

// Render writes the stress report as markdown.
func (r *StressReport) Render(w io.Writer) error {
	return stressReport.Execute(w, r)
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		if sample < s.Min {
			s.Min = sample
		}
		if sample > s.Max {
			s.Max = sample
		}
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}
