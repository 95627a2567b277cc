package debugui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/flatecs/ecs"
)

type EntityInfo struct {
	ID             ecs.Entity
	Mask           ecs.Mask
	ComponentTypes []string
}

// EntityBrowser lists live entities with their masks.
type EntityBrowser struct {
	entities           []EntityInfo
	selectedEntity     ecs.Entity
	filterText         string
	sortColumn         int
	sortAscending      bool
	maxEntitiesPerPage int
	currentPage        int
}

func NewEntityBrowser(maxEntitiesPerPage int) *EntityBrowser {
	return &EntityBrowser{
		selectedEntity:     ecs.InvalidEntity,
		sortAscending:      true,
		maxEntitiesPerPage: maxEntitiesPerPage,
	}
}

// Selected returns the entity picked in the table, or ecs.InvalidEntity.
func (eb *EntityBrowser) Selected() ecs.Entity {
	return eb.selectedEntity
}

func (eb *EntityBrowser) Select(e ecs.Entity) {
	eb.selectedEntity = e
}

func (eb *EntityBrowser) Render(storage *ecs.Storage, registry *ecs.ComponentRegistry) {
	if !imgui.BeginV("Entity Browser", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	// Masks change without any signal from the storage, so the list is
	// rebuilt every frame into the same backing array.
	eb.entities = collectEntities(eb.entities[:0], storage, registry)
	sortEntities(eb.entities, eb.sortColumn, eb.sortAscending)

	imgui.InputTextWithHint("##search", "Search...", &eb.filterText, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		eb.filterText = ""
	}

	filteredEntities := filterEntities(eb.entities, eb.filterText)
	totalPages := 1
	if eb.maxEntitiesPerPage > 0 {
		totalPages = max(1, (len(filteredEntities)+eb.maxEntitiesPerPage-1)/eb.maxEntitiesPerPage)
	}
	eb.currentPage = min(eb.currentPage, totalPages-1)

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("EntityTable", 4, tableFlags, imgui.NewVec2(0, -30), 0) {
		imgui.TableSetupColumn("Entity")
		imgui.TableSetupColumn("Mask")
		imgui.TableSetupColumn("Components")
		imgui.TableSetupColumn("Count")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			eb.sortColumn = int(spec.ColumnIndex())
			eb.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			sortEntities(filteredEntities, eb.sortColumn, eb.sortAscending)
			sortSpecs.SetSpecsDirty(false)
		}

		startIdx, endIdx := 0, len(filteredEntities)
		if eb.maxEntitiesPerPage > 0 {
			startIdx = eb.currentPage * eb.maxEntitiesPerPage
			endIdx = min(startIdx+eb.maxEntitiesPerPage, len(filteredEntities))
		}

		for _, entity := range filteredEntities[startIdx:endIdx] {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			isSelected := eb.selectedEntity == entity.ID
			if imgui.SelectableBoolV(fmt.Sprintf("%d", entity.ID), isSelected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				eb.selectedEntity = entity.ID
			}

			imgui.TableNextColumn()
			imgui.Text(entity.Mask.String())

			imgui.TableNextColumn()
			imgui.Text(strings.Join(entity.ComponentTypes, ", "))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", len(entity.ComponentTypes)))
		}

		imgui.EndTable()
	}

	if totalPages > 1 {
		imgui.Text(fmt.Sprintf("Page %d / %d (%d entities)", eb.currentPage+1, totalPages, len(filteredEntities)))
		imgui.SameLine()
		if imgui.Button("Prev") && eb.currentPage > 0 {
			eb.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") && eb.currentPage < totalPages-1 {
			eb.currentPage++
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d / %d entities", len(filteredEntities), storage.Config().MaxEntities))
	}

	imgui.End()
}

func collectEntities(dst []EntityInfo, storage *ecs.Storage, registry *ecs.ComponentRegistry) []EntityInfo {
	for _, e := range storage.Entities() {
		mask := storage.Mask(e)
		kinds := mask.Kinds()
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = kindLabel(registry, k)
		}
		dst = append(dst, EntityInfo{ID: e, Mask: mask, ComponentTypes: names})
	}
	return dst
}

func sortEntities(entities []EntityInfo, column int, ascending bool) {
	sort.SliceStable(entities, func(i, j int) bool {
		a, b := entities[i], entities[j]
		if !ascending {
			a, b = b, a
		}

		switch column {
		case 1:
			return a.Mask.String() < b.Mask.String()
		case 2:
			return strings.Join(a.ComponentTypes, ",") < strings.Join(b.ComponentTypes, ",")
		case 3:
			return len(a.ComponentTypes) < len(b.ComponentTypes)
		default:
			return a.ID < b.ID
		}
	})
}

// filterEntities returns the entities whose id, mask or component names
// contain text, ignoring case. The input is returned as is for empty text.
func filterEntities(entities []EntityInfo, text string) []EntityInfo {
	if text == "" {
		return entities
	}

	filtered := make([]EntityInfo, 0, len(entities))
	filterLower := strings.ToLower(text)

	for _, entity := range entities {
		idStr := fmt.Sprintf("%d", entity.ID)
		maskStr := entity.Mask.String()
		componentsStr := strings.ToLower(strings.Join(entity.ComponentTypes, " "))

		if strings.Contains(idStr, filterLower) ||
			strings.Contains(maskStr, filterLower) ||
			strings.Contains(componentsStr, filterLower) {
			filtered = append(filtered, entity)
		}
	}

	return filtered
}
