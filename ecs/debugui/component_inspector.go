package debugui

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"unsafe"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/flatecs/ecs"
)

// ComponentInspector shows the present components of one entity. Kinds
// with a registered struct type get editable fields; every slot also gets a
// hex dump of its raw bytes.
type ComponentInspector struct {
	selectedEntity ecs.Entity
}

func NewComponentInspector() *ComponentInspector {
	return &ComponentInspector{selectedEntity: ecs.InvalidEntity}
}

func (ci *ComponentInspector) Render(storage *ecs.Storage, registry *ecs.ComponentRegistry, selected ecs.Entity) {
	if !imgui.BeginV("Component Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	ci.selectedEntity = selected

	if ci.selectedEntity == ecs.InvalidEntity {
		imgui.Text("No entity selected")
		imgui.End()
		return
	}

	if !storage.Alive(ci.selectedEntity) {
		imgui.Text(fmt.Sprintf("Entity %d is not alive", ci.selectedEntity))
		imgui.End()
		return
	}

	mask := storage.Mask(ci.selectedEntity)
	imgui.Text(fmt.Sprintf("Entity: %d", ci.selectedEntity))
	imgui.Text(fmt.Sprintf("Mask: %s", mask))
	imgui.Separator()

	for _, k := range mask.Kinds() {
		slot := storage.GetComponent(ci.selectedEntity, k)
		if imgui.TreeNodeStr(kindLabel(registry, k)) {
			if v, ok := componentValue(registry, k, slot); ok {
				for _, field := range globalReflectionCache.GetFields(v.Type()) {
					ci.renderField(field, v.Field(field.Index))
				}
			}
			if imgui.TreeNodeStr("Raw") {
				imgui.Text(hex.Dump(slot))
				imgui.TreePop()
			}
			imgui.TreePop()
		}
	}

	imgui.End()
}

// componentValue views slot as the struct type registered for k. The value
// aliases the slot, so setting its fields writes the component in place.
func componentValue(registry *ecs.ComponentRegistry, k ecs.Kind, slot []byte) (reflect.Value, bool) {
	if registry == nil || len(slot) == 0 {
		return reflect.Value{}, false
	}
	t := registry.Type(k)
	if t == nil || t.Kind() != reflect.Struct || int(t.Size()) > len(slot) {
		return reflect.Value{}, false
	}
	return reflect.NewAt(t, unsafe.Pointer(&slot[0])).Elem(), true
}

func (ci *ComponentInspector) renderField(field FieldInfo, val reflect.Value) {
	name := field.Name
	id := fmt.Sprintf("##%s@%d", name, field.Offset)

	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := int32(val.Int())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(id, &v) && val.CanSet() && !val.OverflowInt(int64(v)) {
			val.SetInt(int64(v))
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		v := int32(val.Uint())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(id, &v) && v >= 0 && val.CanSet() && !val.OverflowUint(uint64(v)) {
			val.SetUint(uint64(v))
		}

	case reflect.Float32, reflect.Float64:
		v := float32(val.Float())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputFloat(id, &v) && val.CanSet() {
			val.SetFloat(float64(v))
		}

	case reflect.Bool:
		v := val.Bool()
		if imgui.Checkbox(name, &v) && val.CanSet() {
			val.SetBool(v)
		}

	case reflect.Struct:
		if imgui.TreeNodeStr(name) {
			for _, nested := range globalReflectionCache.GetFields(val.Type()) {
				ci.renderField(nested, val.Field(nested.Index))
			}
			imgui.TreePop()
		}

	default:
		imgui.Text(fmt.Sprintf("%s: %v", name, val.Interface()))
	}
}
