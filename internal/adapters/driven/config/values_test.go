package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInt(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected int
	}{
		{"int64", int64(42), 42},
		{"int", 7, 7},
		{"whole float", 3.0, 3},
		{"fractional float", 3.5, 0},
		{"numeric string", " 12 ", 12},
		{"invalid string", "twelve", 0},
		{"bool", true, 0},
		{"nil", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Int(tt.input))
		})
	}
}

func TestFloat(t *testing.T) {
	assert.InDelta(t, 0.5, Float(0.5), 1e-9)
	assert.InDelta(t, 2.0, Float(int64(2)), 1e-9)
	assert.InDelta(t, 0.75, Float("0.75"), 1e-9)
	assert.Zero(t, Float("high"))
}

func TestBool(t *testing.T) {
	assert.True(t, Bool(true))
	assert.True(t, Bool("true"))
	assert.True(t, Bool("1"))
	assert.False(t, Bool("no"))
	assert.False(t, Bool(1))
}

func TestString(t *testing.T) {
	assert.Equal(t, "x", String("x"))
	assert.Empty(t, String(42))
}

func TestStringSlice(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, StringSlice([]any{"a", 1, "b"}))
	assert.Equal(t, []string{"a", "b"}, StringSlice("a, b,,"))
	assert.Equal(t, []string{"x"}, StringSlice([]string{"x"}))
	assert.Nil(t, StringSlice(3))
}

func TestFlattenNest(t *testing.T) {
	nested := map[string]any{
		"mode": "production",
		"store": map[string]any{
			"backend": "sqlite",
			"redis":   map[string]any{"db": int64(2)},
		},
	}
	flat := Flatten(nested, "")
	assert.Equal(t, map[string]any{
		"mode":           "production",
		"store.backend":  "sqlite",
		"store.redis.db": int64(2),
	}, flat)
	assert.Equal(t, nested, Nest(flat))
}

func TestNest_ValueShadowsPrefix(t *testing.T) {
	out := Nest(map[string]any{"a": 1, "a.b": 2})
	assert.Equal(t, map[string]any{"a": 1}, out)
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]any{"c": 1, "a": 2, "b": 3}))
}
