package ebiten_test

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/flatecs/ecs"
	"github.com/plus3/flatecs/ecs/debugui"
	debugui_ebiten "github.com/plus3/flatecs/ecs/debugui/ebiten"
)

type Position struct {
	X, Y float32
}

// Game implements ebiten.Game and integrates the ECS with ImGui rendering.
type Game struct {
	scheduler    *ecs.Scheduler
	imguiBackend *debugui_ebiten.ImguiBackend
}

func (g *Game) Update() error {
	// Execute all ECS systems (including ImguiSystem) inside an ImGui frame
	return g.imguiBackend.Step(g.scheduler, 1.0/60.0)
}

func (g *Game) Draw(screen *ebiten.Image) {
	// Draw game content to screen
	// ...

	// Draw ImGui overlay on top
	g.imguiBackend.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.imguiBackend.Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

func Example() {
	// Create Ebiten window and ImGui backend
	imguiBackend := debugui_ebiten.New("ECS ImGui Example", 1280, 720)

	// Set up storage and register component types
	cfg := ecs.Config{MaxEntities: 1024, MaxComponentKinds: 8, MaxComponentSize: 16}
	registry := ecs.NewComponentRegistry(cfg)
	position := ecs.MustRegisterComponent[Position](registry, "position")
	storage := ecs.MustNewStorage(cfg)

	for i := range 10 {
		storage.Spawn(position.Data(Position{X: float32(i), Y: float32(i * 2)}))
	}

	// Create scheduler, then the debug windows and a custom ImGui item
	scheduler := ecs.NewScheduler(storage)
	ui := debugui.New(scheduler, registry)
	imguiSystem := ui.System()
	imguiSystem.Add(func() {
		imgui.Begin("Debug Window")
		imgui.Text("Hello from ECS!")
		imgui.End()
	})
	scheduler.Register(imguiSystem)

	// Create game instance
	game := &Game{
		scheduler:    scheduler,
		imguiBackend: imguiBackend,
	}

	// Run the game
	if err := ebiten.RunGame(game); err != nil {
		panic(err)
	}
}
