package debugui

import (
	"fmt"
	"slices"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/flatecs/ecs"
)

const maxListedMatches = 50

// QueryDebugger builds a required mask from checkboxes and shows which live
// entities it matches.
type QueryDebugger struct {
	selectedKinds map[ecs.Kind]bool
}

func NewQueryDebugger() *QueryDebugger {
	return &QueryDebugger{
		selectedKinds: make(map[ecs.Kind]bool),
	}
}

// Mask returns the mask built from the ticked kinds.
func (qd *QueryDebugger) Mask() ecs.Mask {
	var mask ecs.Mask
	for k, selected := range qd.selectedKinds {
		if selected {
			mask = mask.With(k)
		}
	}
	return mask
}

func (qd *QueryDebugger) Render(storage *ecs.Storage, registry *ecs.ComponentRegistry) {
	if !imgui.BeginV("Query Debugger", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	imgui.Text("Select Component Kinds:")
	imgui.Separator()

	if imgui.Button("Clear All") {
		clear(qd.selectedKinds)
	}

	for _, k := range candidateKinds(storage.CollectStats(), registry) {
		selected := qd.selectedKinds[k]
		if imgui.Checkbox(kindLabel(registry, k), &selected) {
			if selected {
				qd.selectedKinds[k] = true
			} else {
				delete(qd.selectedKinds, k)
			}
		}
	}

	imgui.Separator()

	mask := qd.Mask()
	if mask.IsZero() {
		imgui.Text("No component kinds selected")
		imgui.End()
		return
	}

	imgui.Text(fmt.Sprintf("Required Mask: %s", mask))
	imgui.Text(fmt.Sprintf("Matching Entities: %d", storage.Count(mask)))

	if imgui.TreeNodeStr("Matches") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("QueryMatchTable", 2, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Entity")
			imgui.TableSetupColumn("Full Mask")
			imgui.TableHeadersRow()

			for _, e := range matchingEntities(storage, mask, maxListedMatches) {
				imgui.TableNextRow()

				imgui.TableSetColumnIndex(0)
				imgui.Text(fmt.Sprintf("%d", e))

				imgui.TableSetColumnIndex(1)
				imgui.Text(storage.Mask(e).String())
			}

			imgui.EndTable()
		}
		imgui.TreePop()
	}

	imgui.End()
}

// candidateKinds returns the registered kinds plus any kind held by a live
// entity, in ascending order.
func candidateKinds(stats ecs.StorageStats, registry *ecs.ComponentRegistry) []ecs.Kind {
	var kinds []ecs.Kind
	if registry != nil {
		kinds = registry.Kinds()
	}
	for k, n := range stats.KindCounts {
		if n > 0 && !slices.Contains(kinds, ecs.Kind(k)) {
			kinds = append(kinds, ecs.Kind(k))
		}
	}
	slices.Sort(kinds)
	return kinds
}

func matchingEntities(storage *ecs.Storage, mask ecs.Mask, limit int) []ecs.Entity {
	var matches []ecs.Entity
	for _, e := range storage.Entities() {
		if len(matches) == limit {
			break
		}
		if storage.Mask(e).Contains(mask) {
			matches = append(matches, e)
		}
	}
	return matches
}
