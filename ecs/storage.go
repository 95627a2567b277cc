package ecs

import (
	"fmt"
	"unsafe"

	"github.com/rotisserie/eris"
)

// Config fixes the capacities of a Storage. They cannot change after
// NewStorage; a snapshot can only be loaded into a Storage built with the
// same Config.
type Config struct {
	MaxEntities       int
	MaxComponentKinds int
	MaxComponentSize  int
}

// DefaultConfig mirrors the capacities the store was originally tuned for.
func DefaultConfig() Config {
	return Config{
		MaxEntities:       1024,
		MaxComponentKinds: 32,
		MaxComponentSize:  8,
	}
}

// Validate reports whether the capacities can back a Storage.
func (c Config) Validate() error {
	switch {
	case c.MaxEntities < 1 || uint64(c.MaxEntities) >= notActive:
		return eris.Wrapf(ErrInvalidConfig, "max entities %d", c.MaxEntities)
	case c.MaxComponentKinds < 1 || c.MaxComponentKinds > MaxComponentKinds:
		return eris.Wrapf(ErrInvalidConfig, "max component kinds %d (limit %d)", c.MaxComponentKinds, MaxComponentKinds)
	case c.MaxComponentSize < 1:
		return eris.Wrapf(ErrInvalidConfig, "max component size %d", c.MaxComponentSize)
	}
	return nil
}

// Storage owns every entity and component of a world. All memory is
// allocated up front by NewStorage.
//
// Storage is not safe for concurrent use.
type Storage struct {
	cfg Config

	freeList   []uint32 // len is the free count
	activeList []uint32 // len is the active count
	activePos  []uint32 // position in activeList, notActive when absent
	created    uint32   // indices ever handed out without recycling

	masks []Mask

	// data holds MaxComponentKinds blocks of MaxEntities*MaxComponentSize
	// bytes. It aliases words so slot offsets keep 8-byte alignment.
	words []uint64
	data  []byte

	dispatching int
}

// NewStorage allocates a store with the given capacities.
func NewStorage(cfg Config) (*Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dataLen := cfg.MaxComponentKinds * cfg.MaxEntities * cfg.MaxComponentSize
	words := make([]uint64, (dataLen+7)/8)

	s := &Storage{
		cfg:        cfg,
		freeList:   make([]uint32, 0, cfg.MaxEntities),
		activeList: make([]uint32, 0, cfg.MaxEntities),
		activePos:  make([]uint32, cfg.MaxEntities),
		masks:      make([]Mask, cfg.MaxEntities),
		words:      words,
		data:       unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), dataLen),
	}
	for i := range s.activePos {
		s.activePos[i] = notActive
	}
	return s, nil
}

// MustNewStorage is like NewStorage but panics on an invalid config.
func MustNewStorage(cfg Config) *Storage {
	s, err := NewStorage(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

// Config returns the capacities the storage was built with.
func (s *Storage) Config() Config {
	return s.cfg
}

// CreateEntity returns a recycled entity when one is available, otherwise the
// next never-used index. It fails with ErrCapacity once every index is live.
func (s *Storage) CreateEntity() (Entity, error) {
	if s.dispatching > 0 {
		return InvalidEntity, eris.Wrap(ErrDispatching, "create entity")
	}

	var idx uint32
	switch {
	case len(s.freeList) > 0:
		idx = s.freeList[len(s.freeList)-1]
		s.freeList = s.freeList[:len(s.freeList)-1]
	case int(s.created) < s.cfg.MaxEntities:
		idx = s.created
		s.created++
	default:
		return InvalidEntity, eris.Wrapf(ErrCapacity, "create entity: %d live", len(s.activeList))
	}

	s.masks[idx] = Mask{}
	s.activePos[idx] = uint32(len(s.activeList))
	s.activeList = append(s.activeList, idx)
	return Entity(idx), nil
}

// DestroyEntity clears the entity's components and returns its index to the
// free list. The entity that occupied the last active position takes the
// destroyed entity's position, so active order is not stable across
// destructions. Destroying an entity that is not alive returns ErrNotFound.
func (s *Storage) DestroyEntity(e Entity) error {
	if s.dispatching > 0 {
		return eris.Wrapf(ErrDispatching, "destroy entity %d", e)
	}
	if !s.Alive(e) {
		return eris.Wrapf(ErrNotFound, "destroy entity %d", e)
	}

	s.masks[e] = Mask{}
	s.freeList = append(s.freeList, uint32(e))

	pos := s.activePos[e]
	last := len(s.activeList) - 1
	moved := s.activeList[last]
	s.activeList[pos] = moved
	s.activePos[moved] = pos
	s.activeList = s.activeList[:last]
	s.activePos[e] = notActive
	return nil
}

// Alive reports whether e is currently in the active list.
func (s *Storage) Alive(e Entity) bool {
	return int(e) < s.cfg.MaxEntities && s.activePos[e] != notActive
}

// Len returns the number of live entities.
func (s *Storage) Len() int {
	return len(s.activeList)
}

// Entities returns a copy of the active list in its current order.
func (s *Storage) Entities() []Entity {
	out := make([]Entity, len(s.activeList))
	for i, idx := range s.activeList {
		out[i] = Entity(idx)
	}
	return out
}

// AddComponent copies data into the (e, k) slot and marks the kind present.
// Bytes past len(data) keep whatever a previous occupant left there. The
// call is rejected without side effects when the kind is already present,
// when e, k or len(data) exceed the configured bounds, or when e is not alive.
func (s *Storage) AddComponent(e Entity, k Kind, data []byte) error {
	if err := s.checkBounds(e, k); err != nil {
		return eris.Wrap(err, "add component")
	}
	if len(data) > s.cfg.MaxComponentSize {
		return eris.Wrapf(ErrOutOfRange, "add component: %d bytes exceeds slot size %d", len(data), s.cfg.MaxComponentSize)
	}
	if s.activePos[e] == notActive {
		return eris.Wrapf(ErrNotFound, "add component %d to entity %d", k, e)
	}
	if s.masks[e].Has(k) {
		return eris.Wrapf(ErrAlreadyPresent, "add component %d to entity %d", k, e)
	}

	copy(s.slot(e, k), data)
	s.masks[e] = s.masks[e].With(k)
	return nil
}

// RemoveComponent clears the presence bit of kind k. The slot bytes are left
// in place.
func (s *Storage) RemoveComponent(e Entity, k Kind) error {
	if err := s.checkBounds(e, k); err != nil {
		return eris.Wrap(err, "remove component")
	}
	if s.activePos[e] == notActive {
		return eris.Wrapf(ErrNotFound, "remove component %d from entity %d", k, e)
	}
	if !s.masks[e].Has(k) {
		return eris.Wrapf(ErrNotPresent, "remove component %d from entity %d", k, e)
	}

	s.masks[e] = s.masks[e].Without(k)
	return nil
}

// GetComponent returns a mutable view of the (e, k) slot, MaxComponentSize
// bytes long. Presence is not checked: systems reached through a mask match
// already know the kind is attached. It panics when e or k is out of range.
func (s *Storage) GetComponent(e Entity, k Kind) []byte {
	if err := s.checkBounds(e, k); err != nil {
		panic(fmt.Sprintf("ecs: get component %d of entity %d: %v", k, e, err))
	}
	return s.slot(e, k)
}

// HasComponent reports whether e currently holds kind k.
func (s *Storage) HasComponent(e Entity, k Kind) bool {
	return int(e) < s.cfg.MaxEntities && s.masks[e].Has(k)
}

// Mask returns the presence mask of e; the zero mask for unknown entities.
func (s *Storage) Mask(e Entity) Mask {
	if int(e) >= s.cfg.MaxEntities {
		return Mask{}
	}
	return s.masks[e]
}

func (s *Storage) checkBounds(e Entity, k Kind) error {
	if int(k) >= s.cfg.MaxComponentKinds {
		return eris.Wrapf(ErrOutOfRange, "kind %d (max %d)", k, s.cfg.MaxComponentKinds)
	}
	if int(e) >= s.cfg.MaxEntities {
		return eris.Wrapf(ErrOutOfRange, "entity %d (max %d)", e, s.cfg.MaxEntities)
	}
	return nil
}

func (s *Storage) slot(e Entity, k Kind) []byte {
	size := s.cfg.MaxComponentSize
	off := (int(k)*s.cfg.MaxEntities + int(e)) * size
	return s.data[off : off+size : off+size]
}

// Reset returns the storage to its freshly allocated state: no live
// entities, an empty free list and zeroed slots.
func (s *Storage) Reset() error {
	if s.dispatching > 0 {
		return eris.Wrap(ErrDispatching, "reset")
	}
	s.freeList = s.freeList[:0]
	s.activeList = s.activeList[:0]
	s.created = 0
	clear(s.masks)
	clear(s.words)
	for i := range s.activePos {
		s.activePos[i] = notActive
	}
	return nil
}
