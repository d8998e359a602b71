package recipe

import (
	"chef-agent-api/domain"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	defaultServings   = 1
	defaultDifficulty = "medium"
)

// NormalizePayload reconciles the chef's flat time_to_prepare shape with the
// prep/cook/total shape used for storage and fills any missing field with a
// fallback. The input map is not modified. Applying it twice is a no-op.
func NormalizePayload(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+8)
	for k, v := range in {
		out[k] = v
	}

	if ttp, ok := out["time_to_prepare"]; ok {
		if _, has := out["total_time"]; !has {
			out["total_time"] = ttp
			setDefault(out, "prep_time", 0)
			setDefault(out, "cook_time", 0)
		}
		delete(out, "time_to_prepare")
	}

	name, _ := out["name"].(string)
	setDefault(out, "description", name)
	prep := toInt(valueOr(out, "prep_time", 0))
	cook := toInt(valueOr(out, "cook_time", 0))
	out["prep_time"] = prep
	out["cook_time"] = cook
	out["total_time"] = toInt(valueOr(out, "total_time", prep+cook))
	out["servings"] = toInt(valueOr(out, "servings", defaultServings))
	setDefault(out, "difficulty", defaultDifficulty)
	if tags, ok := out["tags"]; !ok || tags == nil {
		out["tags"] = []any{}
	}
	setDefault(out, "image_url", nil)

	out["ingredients"] = normalizeIngredients(out["ingredients"])
	out["instructions"] = normalizeInstructions(out["instructions"])

	if out["total_time"].(int) == 0 {
		total := 0
		for _, step := range out["instructions"].([]any) {
			if m, ok := step.(map[string]any); ok {
				total += toInt(m["time_minutes"])
			}
		}
		out["total_time"] = total
		// unattributed time counts as cooking
		if prep == 0 && cook == 0 && total > 0 {
			out["cook_time"] = total
		}
	}

	return out
}

func normalizeIngredients(v any) []any {
	items, _ := v.([]any)
	res := make([]any, 0, len(items))
	for _, item := range items {
		switch it := item.(type) {
		case string:
			res = append(res, map[string]any{"name": it, "quantity": ""})
		case map[string]any:
			m := copyMap(it)
			if _, ok := m["quantity"]; !ok {
				m["quantity"] = ""
			}
			res = append(res, m)
		}
	}
	return res
}

func normalizeInstructions(v any) []any {
	items, _ := v.([]any)
	res := make([]any, 0, len(items))
	for i, item := range items {
		switch it := item.(type) {
		case string:
			res = append(res, map[string]any{
				"step_number":  i + 1,
				"description":  it,
				"time_minutes": 0,
			})
		case map[string]any:
			m := copyMap(it)
			if _, ok := m["description"]; !ok {
				for _, alt := range domain.DescriptionAliases {
					if a, ok := m[alt]; ok && a != nil {
						if s, ok := a.(string); ok {
							m["description"] = s
						} else {
							m["description"] = fmt.Sprint(a)
						}
						break
					}
				}
			}
			if n := toInt(m["step_number"]); n < 1 {
				m["step_number"] = i + 1
			} else {
				m["step_number"] = n
			}
			m["time_minutes"] = toInt(m["time_minutes"])
			res = append(res, m)
		}
	}
	return res
}

func setDefault(m map[string]any, key string, value any) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}

func valueOr(m map[string]any, key string, fallback any) any {
	if v, ok := m[key]; ok && v != nil {
		return v
	}
	return fallback
}

func copyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// toInt coerces the numeric shapes a decoded JSON payload may carry.
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(math.Round(n))
	case float32:
		return int(math.Round(float64(n)))
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		if f, err := n.Float64(); err == nil {
			return int(math.Round(f))
		}
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(math.Round(f))
		}
	}
	return 0
}
