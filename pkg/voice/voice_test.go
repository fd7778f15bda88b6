package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Category
	}{
		{"lowercase male", "male", Male},
		{"single letter m", "M", Male},
		{"man", "man", Male},
		{"uppercase male", "MALE", Male},
		{"lowercase female", "female", Female},
		{"single letter f", "F", Female},
		{"woman", "woman", Female},
		{"uppercase female", "FEMALE", Female},
		{"mixed case female", "FeMaLe", Female},
		{"whitespace padded", "  female  ", Female},
		{"empty defaults to male", "", Male},
		{"unrecognized defaults to male", "xyz", Male},
		{"whitespace only defaults to male", "   ", Male},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestModels(t *testing.T) {
	maleModels := Models(Male)
	femaleModels := Models(Female)

	assert.Len(t, maleModels, 2)
	assert.Len(t, femaleModels, 2)
	assert.Equal(t, PrimaryModel(Male), maleModels[0])
	assert.Equal(t, AlternateModel(Male), maleModels[1])
	assert.NotEqual(t, maleModels[0], maleModels[1])
	assert.NotEqual(t, maleModels, femaleModels)
}

func TestModelsUnknownCategoryFallsBackToDefault(t *testing.T) {
	assert.Equal(t, Models(Male), Models(Category("SOMETHING_ELSE")))
}

func TestIsCanonical(t *testing.T) {
	assert.True(t, IsCanonical("MALE"))
	assert.True(t, IsCanonical("FEMALE"))
	assert.False(t, IsCanonical("male"))
	assert.False(t, IsCanonical(""))
}
