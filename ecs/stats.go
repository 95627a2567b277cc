package ecs

// StorageStats summarises occupancy of a Storage.
type StorageStats struct {
	Capacity       int
	LiveEntities   int
	FreeSlots      int
	Created        int
	ComponentKinds int
	SlotSize       int
	SnapshotSize   int
	// KindCounts[k] is the number of live entities holding kind k.
	KindCounts     []int
}

// CollectStats walks the active list and counts components per kind.
func (s *Storage) CollectStats() StorageStats {
	stats := StorageStats{
		Capacity:       s.cfg.MaxEntities,
		LiveEntities:   len(s.activeList),
		FreeSlots:      len(s.freeList),
		Created:        int(s.created),
		ComponentKinds: s.cfg.MaxComponentKinds,
		SlotSize:       s.cfg.MaxComponentSize,
		SnapshotSize:   s.SnapshotSize(),
		KindCounts:     make([]int, s.cfg.MaxComponentKinds),
	}

	for _, idx := range s.activeList {
		for _, k := range s.masks[idx].Kinds() {
			stats.KindCounts[k]++
		}
	}
	return stats
}
