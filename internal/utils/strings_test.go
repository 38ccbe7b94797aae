package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty string", input: "", expected: nil},
		{name: "single percentile", input: "50", expected: []string{"50"}},
		{name: "percentile list", input: "30, 70", expected: []string{"30", "70"}},
		{name: "varied spacing", input: "10,  50 , 90", expected: []string{"10", "50", "90"}},
		{name: "trailing comma", input: "size,", expected: []string{"size"}},
		{name: "leading comma", input: ",ret", expected: []string{"ret"}},
		{name: "only spaces", input: "   ", expected: nil},
		{name: "comma only", input: ",", expected: nil},
		{name: "multiple commas", input: ",,size,,bm,,", expected: []string{"size", "bm"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCSV(tt.input))
		})
	}
}

func TestParseCSV_PreservesInput(t *testing.T) {
	input := "size, bm"
	original := input

	_ = ParseCSV(input)

	assert.Equal(t, original, input, "input should not be modified")
}
