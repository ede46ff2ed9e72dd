package dataset

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// LoadJSON builds a dataset table from a JSON model document with the same
// shape as the YAML form.
func LoadJSON(data []byte) (*Table, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid model json")
	}

	doc := modelDoc{
		Config: make(map[string]interface{}),
		Techs:  make(map[string]map[string]interface{}),
		Nodes:  make(map[string]nodeDoc),
	}

	gjson.GetBytes(data, "config").ForEach(func(key, value gjson.Result) bool {
		doc.Config[key.String()] = resultValue(value)
		return true
	})
	gjson.GetBytes(data, "carriers").ForEach(func(_, value gjson.Result) bool {
		doc.Carriers = append(doc.Carriers, value.String())
		return true
	})
	gjson.GetBytes(data, "techs").ForEach(func(tech, attrs gjson.Result) bool {
		doc.Techs[tech.String()] = resultMap(attrs)
		return true
	})
	gjson.GetBytes(data, "nodes").ForEach(func(node, body gjson.Result) bool {
		nd := nodeDoc{Techs: make(map[string]map[string]interface{})}
		body.Get("techs").ForEach(func(tech, attrs gjson.Result) bool {
			nd.Techs[tech.String()] = resultMap(attrs)
			return true
		})
		doc.Nodes[node.String()] = nd
		return true
	})

	return buildModel(&doc)
}

func resultMap(res gjson.Result) map[string]interface{} {
	if !res.IsObject() {
		return nil
	}
	out := make(map[string]interface{})
	res.ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = resultValue(value)
		return true
	})
	return out
}

// resultValue mirrors the YAML scalar shapes: numbers uniformly as float64,
// with one nested object level retained for per-carrier maps.
func resultValue(res gjson.Result) interface{} {
	switch res.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return res.Float()
	case gjson.String:
		return res.String()
	}
	if res.IsObject() {
		return resultMap(res)
	}
	return res.Value()
}
