package utils

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestTimer_StopWithContext(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	d := NewTimer("sort", log).StopWithContext(map[string]interface{}{
		"rows":  10,
		"shape": []int{2, 3},
		"hml":   0.5,
	})

	assert.GreaterOrEqual(t, int64(d), int64(0))
	out := buf.String()
	assert.Contains(t, out, `"operation":"sort"`)
	assert.Contains(t, out, `"rows":10`)
	assert.Contains(t, out, `"shape":[2,3]`)
	assert.Contains(t, out, `"message":"Operation completed"`)
}

func TestMeasureDBQuery(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	MeasureDBQuery("load_firms", log)(42)

	assert.Contains(t, buf.String(), `"query":"load_firms"`)
	assert.Contains(t, buf.String(), `"rows":42`)
}
