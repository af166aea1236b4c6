package expressions

import "github.com/mrajende/vdmlio/internal/model"

// Scope is what an expression can read. Data is copied on construction so
// an evaluation never observes later changes by the caller.
type Scope struct {
	Data map[string]any
	Flow map[string]any
}

// NewScope builds the scope for the condition of flow.
func NewScope(flow *model.Node, data map[string]any) Scope {
	s := Scope{Data: deepCopyMap(data), Flow: map[string]any{}}
	if s.Data == nil {
		s.Data = map[string]any{}
	}
	if flow == nil {
		return s
	}
	s.Flow["id"] = flow.ID
	s.Flow["name"] = flow.Name
	if flow.SourceRef != nil {
		s.Flow["source"] = describe(flow.SourceRef)
	}
	if flow.TargetRef != nil {
		s.Flow["target"] = describe(flow.TargetRef)
	}
	return s
}

func describe(n *model.Node) map[string]any {
	return map[string]any{
		"id":   n.ID,
		"name": n.Name,
		"kind": n.Kind.LocalName(),
	}
}

// vars returns the scope as the variable map shared by all engines.
func (s Scope) vars() map[string]any {
	data, flow := s.Data, s.Flow
	if data == nil {
		data = map[string]any{}
	}
	if flow == nil {
		flow = map[string]any{}
	}
	return map[string]any{"data": data, "flow": flow}
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = deepCopyAny(v)
	}
	return cp
}

func deepCopyAny(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cp := make([]any, len(val))
		for i, item := range val {
			cp[i] = deepCopyAny(item)
		}
		return cp
	default:
		return v
	}
}
