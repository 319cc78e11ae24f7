package pxl

import "encoding/json"

// TransformSpec names a geometric transform with optional parameters.
// It decodes from either JSON form: a string ("mirror-h", "rotate:90",
// "rotate(90deg)") or an object ({"op": "tile", "w": 3, "h": 2}).
// The core does not interpret transforms; it hands them to the
// TransformApplier.
type TransformSpec struct {
	Op     string
	Params map[string]any
}

// UnmarshalJSON accepts a string or an {"op": ..., ...} object.
func (t *TransformSpec) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &t.Op)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if op, ok := raw["op"].(string); ok {
		t.Op = op
		delete(raw, "op")
	}
	t.Params = raw
	return nil
}

// MarshalJSON writes the string form when there are no parameters.
func (t TransformSpec) MarshalJSON() ([]byte, error) {
	if len(t.Params) == 0 {
		return json.Marshal(t.Op)
	}
	raw := make(map[string]any, len(t.Params)+1)
	for k, v := range t.Params {
		raw[k] = v
	}
	raw["op"] = t.Op
	return json.Marshal(raw)
}

// TransformApplier performs geometric transforms (mirror, rotate,
// scale, translate, tile, outline, pad) on rendered images. It is an
// external collaborator: the core delegates every named transform to
// it and never interprets the spec itself.
type TransformApplier interface {
	Apply(img *Pixmap, spec TransformSpec) (*Pixmap, error)
}
