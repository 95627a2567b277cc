// Package ebiten provides Dear ImGui backend integration for the Ebiten game engine.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/flatecs/ecs"
)

// ImguiBackend wraps the Ebiten-specific Dear ImGui backend implementation.
// Use this to integrate Dear ImGui rendering into Ebiten game loops.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

// New creates the backend and its window. ImGui's ini file is disabled so
// window layout is not persisted between runs.
func New(title string, width, height int) *ImguiBackend {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	imgui.CurrentIO().SetIniFilename("")
	return &ImguiBackend{EbitenBackend: backend}
}

// Step runs one scheduler frame inside an ImGui frame, so systems and the
// render functions they defer may issue ImGui calls.
func (b *ImguiBackend) Step(scheduler *ecs.Scheduler, dt float64) error {
	b.BeginFrame()
	defer b.EndFrame()
	return scheduler.Once(dt)
}
