package maps

import "slices"

// Clone returns a deep copy of d. Nested prop maps and slices are copied
// too, so the result shares no mutable state with d.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	c := *d
	c.TileGrid = slices.Clone(d.TileGrid)
	c.TriggerGrid = slices.Clone(d.TriggerGrid)
	c.ActionGrid = slices.Clone(d.ActionGrid)
	c.NPCSpawnGrid = slices.Clone(d.NPCSpawnGrid)
	c.Triggers = cloneRefs(d.Triggers)
	c.Actions = cloneRefs(d.Actions)
	c.Hooks = cloneRefs(d.Hooks)
	if d.NPCTemplates != nil {
		c.NPCTemplates = make(map[string]NPCTemplate, len(d.NPCTemplates))
		for code, tpl := range d.NPCTemplates {
			tpl.Props, _ = cloneValue(tpl.Props).(map[string]any)
			c.NPCTemplates[code] = tpl
		}
	}
	return &c
}

func cloneRefs[K comparable](refs map[K]BehaviorRef) map[K]BehaviorRef {
	if refs == nil {
		return nil
	}
	out := make(map[K]BehaviorRef, len(refs))
	for k, ref := range refs {
		if ref.Params != nil {
			params := make(map[string]string, len(ref.Params))
			for pk, pv := range ref.Params {
				params[pk] = pv
			}
			ref.Params = params
		}
		out[k] = ref
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return t
		}
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
