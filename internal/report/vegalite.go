package report

import "github.com/research-explorer/backend/internal/models"

const vegaLiteSchema = "https://vega.github.io/schema/vega-lite/v5.json"

// VegaLite renders c as a Vega-Lite spec with inline data, ready for vega-embed.
// Category sort order is fixed by the point order.
func VegaLite(c models.Chart) map[string]interface{} {
	values := make([]map[string]interface{}, len(c.Points))
	order := make([]string, len(c.Points))
	for i, p := range c.Points {
		values[i] = map[string]interface{}{
			c.Field:      p.Label,
			c.ValueField: p.Value,
			"rows":       p.Rows,
		}
		order[i] = p.Label
	}

	catType := "nominal"
	if c.Ordinal {
		catType = "ordinal"
	}
	category := map[string]interface{}{"field": c.Field, "type": catType, "sort": order}
	value := map[string]interface{}{"field": c.ValueField, "type": "quantitative", "title": "sum(" + c.ValueField + ")"}

	var mark interface{} = string(c.Mark)
	if c.PointMarker {
		mark = map[string]interface{}{"type": string(c.Mark), "point": true}
	}

	encoding := map[string]interface{}{
		"tooltip": []map[string]interface{}{
			{"field": c.Field, "type": catType},
			{"field": c.ValueField, "type": "quantitative", "format": ",d"},
		},
	}
	if c.Horizontal {
		encoding["x"] = value
		encoding["y"] = category
	} else {
		encoding["x"] = category
		encoding["y"] = value
	}

	return map[string]interface{}{
		"$schema":  vegaLiteSchema,
		"title":    c.Title,
		"width":    "container",
		"data":     map[string]interface{}{"values": values},
		"mark":     mark,
		"encoding": encoding,
	}
}
