package ecs

// System represents a behavior that operates on entities with specific components.
// User-defined systems implement this interface and can include Query fields
// for accessing entities, as well as custom state fields that persist between frames.
type System interface {
	Execute(frame *UpdateFrame)
}

// funcSystem adapts a SystemFunc to the System interface.
type funcSystem[C any] struct {
	name     string
	required Mask
	fn       SystemFunc[C]
	ctx      C
}

// NewFuncSystem wraps fn so the Scheduler dispatches it over every entity
// matching required, passing ctx through.
func NewFuncSystem[C any](name string, required Mask, fn SystemFunc[C], ctx C) System {
	return &funcSystem[C]{name: name, required: required, fn: fn, ctx: ctx}
}

func (f *funcSystem[C]) Execute(frame *UpdateFrame) {
	Run(frame.Storage, f.fn, f.ctx, f.required)
}

func (f *funcSystem[C]) Name() string {
	return f.name
}
