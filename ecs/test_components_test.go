package ecs_test

import (
	"encoding/binary"

	"github.com/plus3/flatecs/ecs"
)

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Health struct {
	Current int32
	Max     int32
}

type Score int32

type Tag uint8

var testConfig = ecs.Config{
	MaxEntities:       64,
	MaxComponentKinds: 8,
	MaxComponentSize:  8,
}

type testComponents struct {
	registry *ecs.ComponentRegistry
	position ecs.Component[Position]
	velocity ecs.Component[Velocity]
	health   ecs.Component[Health]
	score    ecs.Component[Score]
	tag      ecs.Component[Tag]
}

func newTestComponents() testComponents {
	registry := ecs.NewComponentRegistry(testConfig)
	return testComponents{
		registry: registry,
		position: ecs.MustRegisterComponent[Position](registry, "position"),
		velocity: ecs.MustRegisterComponent[Velocity](registry, "velocity"),
		health:   ecs.MustRegisterComponent[Health](registry, "health"),
		score:    ecs.MustRegisterComponent[Score](registry, "score"),
		tag:      ecs.MustRegisterComponent[Tag](registry, "tag"),
	}
}

func newTestStorage() *ecs.Storage {
	return ecs.MustNewStorage(testConfig)
}

func int32Bytes(v int32) []byte {
	return binary.LittleEndian.AppendUint32(nil, uint32(v))
}

func readInt32(b []byte) int32 {
	return int32(binary.LittleEndian.Uint32(b))
}
