package workflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"maps"
	"slices"

	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"
)

var errNotObject = errors.New("workflow: element is not a JSON object")

// MarshalJSON writes the typed fields followed by Extra in key order. A key
// present in Extra replaces the typed field of the same name.
func (n Node) MarshalJSON() ([]byte, error) {
	w := objectWriter{extra: n.Extra}
	w.value("id", n.ID, true)
	w.value("type", n.Type, n.Type != "")
	w.value("position", n.Position, true)
	w.raw("data", n.Data, len(n.Data) > 0)
	return w.finish()
}

// UnmarshalJSON accepts any JSON object. Members that do not fit a typed
// field exactly are kept in Extra.
func (n *Node) UnmarshalJSON(b []byte) error {
	obj := gjson.ParseBytes(b)
	if !obj.IsObject() {
		return errNotObject
	}
	*n = Node{}
	obj.ForEach(func(key, value gjson.Result) bool {
		switch k := key.String(); {
		case k == "id" && value.Type == gjson.String:
			n.ID = value.String()
		case k == "type" && isText(value):
			n.Type = value.String()
		case k == "position" && isPoint(value):
			n.Position = Position{X: value.Get("x").Float(), Y: value.Get("y").Float()}
		case k == "data":
			n.Data = json.RawMessage(value.Raw)
		default:
			n.Extra = keep(n.Extra, k, value)
		}
		return true
	})
	return nil
}

func (e Edge) MarshalJSON() ([]byte, error) {
	w := objectWriter{extra: e.Extra}
	w.value("id", e.ID, e.ID != "")
	w.value("source", e.Source, true)
	w.value("target", e.Target, true)
	w.value("sourceHandle", e.SourceHandle, e.SourceHandle != "")
	w.value("targetHandle", e.TargetHandle, e.TargetHandle != "")
	w.value("label", e.Label, e.Label != "")
	w.raw("data", e.Data, len(e.Data) > 0)
	return w.finish()
}

func (e *Edge) UnmarshalJSON(b []byte) error {
	obj := gjson.ParseBytes(b)
	if !obj.IsObject() {
		return errNotObject
	}
	*e = Edge{}
	obj.ForEach(func(key, value gjson.Result) bool {
		switch k := key.String(); {
		case k == "id" && isText(value):
			e.ID = value.String()
		case k == "source" && value.Type == gjson.String:
			e.Source = value.String()
		case k == "target" && value.Type == gjson.String:
			e.Target = value.String()
		case k == "sourceHandle" && isText(value):
			e.SourceHandle = value.String()
		case k == "targetHandle" && isText(value):
			e.TargetHandle = value.String()
		case k == "label" && isText(value):
			e.Label = value.String()
		case k == "data":
			e.Data = json.RawMessage(value.Raw)
		default:
			e.Extra = keep(e.Extra, k, value)
		}
		return true
	})
	return nil
}

// isText reports a non-empty string. Empty strings go to Extra because the
// typed field would omit them on output.
func isText(v gjson.Result) bool {
	return v.Type == gjson.String && v.Str != ""
}

// isPoint reports an object holding exactly numeric x and y.
func isPoint(v gjson.Result) bool {
	if !v.IsObject() {
		return false
	}
	fields := 0
	ok := true
	v.ForEach(func(key, value gjson.Result) bool {
		fields++
		k := key.String()
		ok = (k == "x" || k == "y") && value.Type == gjson.Number
		return ok
	})
	return ok && fields == 2 && v.Get("x").Exists() && v.Get("y").Exists()
}

func keep(extra map[string]json.RawMessage, key string, value gjson.Result) map[string]json.RawMessage {
	if extra == nil {
		extra = make(map[string]json.RawMessage)
	}
	extra[key] = json.RawMessage(value.Raw)
	return extra
}

// objectWriter assembles a JSON object with a fixed field order.
type objectWriter struct {
	buf   bytes.Buffer
	extra map[string]json.RawMessage
	err   error
}

func (w *objectWriter) value(key string, v any, include bool) {
	if w.err != nil || !include {
		return
	}
	b, err := sonic.Marshal(v)
	if err != nil {
		w.err = err
		return
	}
	w.raw(key, b, true)
}

func (w *objectWriter) raw(key string, v []byte, include bool) {
	if w.err != nil || !include {
		return
	}
	if _, overridden := w.extra[key]; overridden {
		return
	}
	w.write(key, v)
}

func (w *objectWriter) write(key string, v []byte) {
	k, err := sonic.Marshal(key)
	if err != nil {
		w.err = err
		return
	}
	if w.buf.Len() == 0 {
		w.buf.WriteByte('{')
	} else {
		w.buf.WriteByte(',')
	}
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(v)
}

func (w *objectWriter) finish() ([]byte, error) {
	for _, k := range slices.Sorted(maps.Keys(w.extra)) {
		if w.err != nil {
			break
		}
		w.write(k, w.extra[k])
	}
	if w.err != nil {
		return nil, w.err
	}
	if w.buf.Len() == 0 {
		return []byte("{}"), nil
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes(), nil
}
