// Package debugui provides immediate-mode GUI integration for ECS applications using Dear ImGui.
// It renders inspection windows over a Storage and feeds ImGui's input capture state back to the game.
package debugui

import (
	"strconv"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/flatecs/ecs"
)

// InputState tracks Dear ImGui's input capture state.
// Use this to determine if ImGui is consuming mouse or keyboard input.
type InputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// ImguiSystem defers its render functions so they run after every other
// system of the frame, once the frame's commands have been applied.
type ImguiSystem struct {
	Items []func()

	input InputState
}

// Add appends a render function.
func (i *ImguiSystem) Add(render func()) {
	i.Items = append(i.Items, render)
}

// Input returns the capture state recorded by the last Execute.
func (i *ImguiSystem) Input() InputState {
	return i.input
}

// Execute updates input state and queues all ImGui render functions for execution.
func (i *ImguiSystem) Execute(frame *ecs.UpdateFrame) {
	io := imgui.CurrentIO()
	i.input = InputState{
		WantCaptureMouse:    io.WantCaptureMouse(),
		WantCaptureKeyboard: io.WantCaptureKeyboard(),
	}

	for _, item := range i.Items {
		frame.Commands.Defer(item)
	}
}

func (i *ImguiSystem) Name() string {
	return "imgui"
}

// DebugUI groups the inspection windows for one scheduler and its storage.
type DebugUI struct {
	Browser   *EntityBrowser
	Inspector *ComponentInspector
	Queries   *QueryDebugger
	Stats     *PerformanceStats

	scheduler *ecs.Scheduler
	registry  *ecs.ComponentRegistry
	timer     *FrameTimer
}

// New creates the windows. registry may be nil, in which case kinds are
// shown by number and component slots as raw bytes.
func New(scheduler *ecs.Scheduler, registry *ecs.ComponentRegistry) *DebugUI {
	return &DebugUI{
		Browser:   NewEntityBrowser(100),
		Inspector: NewComponentInspector(),
		Queries:   NewQueryDebugger(),
		Stats:     NewPerformanceStats(120),
		scheduler: scheduler,
		registry:  registry,
		timer:     NewFrameTimer(),
	}
}

// Render draws every window. It must be called between the backend's
// BeginFrame and EndFrame.
func (d *DebugUI) Render() {
	storage := d.scheduler.Storage()
	d.Browser.Render(storage, d.registry)
	d.Inspector.Render(storage, d.registry, d.Browser.Selected())
	d.Queries.Render(storage, d.registry)
	d.Stats.Render(storage, d.registry, d.scheduler, d.timer.GetDeltaTime())
}

// System returns an ImguiSystem that renders the windows each frame.
func (d *DebugUI) System() *ImguiSystem {
	return &ImguiSystem{Items: []func(){d.Render}}
}

// FrameTimer measures wall time between successive calls.
type FrameTimer struct {
	lastFrameTime time.Time
}

func NewFrameTimer() *FrameTimer {
	return &FrameTimer{
		lastFrameTime: time.Now(),
	}
}

func (ft *FrameTimer) GetDeltaTime() float32 {
	now := time.Now()
	delta := float32(now.Sub(ft.lastFrameTime).Seconds())
	ft.lastFrameTime = now
	return delta
}

func kindLabel(registry *ecs.ComponentRegistry, k ecs.Kind) string {
	if registry != nil {
		if name := registry.Name(k); name != "" {
			return name
		}
	}
	return "kind " + strconv.Itoa(int(k))
}
