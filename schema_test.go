package relay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaFor_SimpleTypes(t *testing.T) {
	type Args struct {
		Name   string  `json:"name"`
		Age    int     `json:"age"`
		Score  float64 `json:"score"`
		Active bool    `json:"active"`
	}

	schema := SchemaFor[Args]().Build()

	var result map[string]any
	err := json.Unmarshal(schema, &result)
	require.NoError(t, err)

	assert.Equal(t, "object", result["type"])
	props := result["properties"].(map[string]any)

	assert.Equal(t, "string", props["name"].(map[string]any)["type"])
	assert.Equal(t, "integer", props["age"].(map[string]any)["type"])
	assert.Equal(t, "number", props["score"].(map[string]any)["type"])
	assert.Equal(t, "boolean", props["active"].(map[string]any)["type"])
}

func TestSchemaFor_RequiredFromTags(t *testing.T) {
	type Args struct {
		Location string `json:"location"`
		Unit     string `json:"unit,omitempty"`
	}

	schema := SchemaFor[Args]().Build()

	var result map[string]any
	err := json.Unmarshal(schema, &result)
	require.NoError(t, err)

	required := result["required"].([]any)
	assert.Len(t, required, 1)
	assert.Equal(t, "location", required[0])
}

func TestSchemaFor_DescTags(t *testing.T) {
	type Args struct {
		City string `json:"city" desc:"City name"`
	}

	schema := SchemaFor[Args]().Build()

	var result map[string]any
	err := json.Unmarshal(schema, &result)
	require.NoError(t, err)

	props := result["properties"].(map[string]any)
	assert.Equal(t, "City name", props["city"].(map[string]any)["description"])
}

func TestSchemaFor_Optional(t *testing.T) {
	type Args struct {
		A string `json:"a"`
		B string `json:"b"`
	}

	schema := SchemaFor[Args]().Optional("b").Build()

	var result map[string]any
	err := json.Unmarshal(schema, &result)
	require.NoError(t, err)

	required := result["required"].([]any)
	assert.Equal(t, []any{"a"}, required)
}

func TestSchemaFor_NestedStruct(t *testing.T) {
	type Inner struct {
		Value int `json:"value"`
	}
	type Args struct {
		Inner Inner `json:"inner"`
	}

	schema := SchemaFor[Args]().Build()

	var result map[string]any
	err := json.Unmarshal(schema, &result)
	require.NoError(t, err)

	props := result["properties"].(map[string]any)
	inner := props["inner"].(map[string]any)
	assert.Equal(t, "object", inner["type"])
	innerProps := inner["properties"].(map[string]any)
	assert.Equal(t, "integer", innerProps["value"].(map[string]any)["type"])
}

func TestSchemaFor_Arrays(t *testing.T) {
	type Args struct {
		Tags []string `json:"tags"`
	}

	schema := SchemaFor[Args]().Build()

	var result map[string]any
	err := json.Unmarshal(schema, &result)
	require.NoError(t, err)

	props := result["properties"].(map[string]any)
	tags := props["tags"].(map[string]any)
	assert.Equal(t, "array", tags["type"])
	assert.Equal(t, "string", tags["items"].(map[string]any)["type"])
}

func TestSchemaFor_SkipsUnexportedAndIgnored(t *testing.T) {
	type Args struct {
		Visible string `json:"visible"`
		Skipped string `json:"-"`
		hidden  string //nolint:unused
	}

	schema := SchemaFor[Args]().Build()

	var result map[string]any
	err := json.Unmarshal(schema, &result)
	require.NoError(t, err)

	props := result["properties"].(map[string]any)
	assert.Len(t, props, 1)
	assert.Contains(t, props, "visible")
}

func TestNewSchema_Builder(t *testing.T) {
	schema := NewSchema().
		Str("city", "City name").
		Int("days", "Forecast days").
		Enum("city", "paris", "tokyo").
		Required("city").
		Build()

	var result map[string]any
	err := json.Unmarshal(schema, &result)
	require.NoError(t, err)

	props := result["properties"].(map[string]any)
	city := props["city"].(map[string]any)
	assert.Equal(t, "string", city["type"])
	assert.Equal(t, "City name", city["description"])
	assert.Equal(t, []any{"paris", "tokyo"}, city["enum"])
	assert.Equal(t, "integer", props["days"].(map[string]any)["type"])
	assert.Equal(t, []any{"city"}, result["required"].([]any))
}

func TestNewSchema_Empty(t *testing.T) {
	schema := NewSchema().Build()
	assert.JSONEq(t, `{"type":"object","properties":{}}`, string(schema))
}
