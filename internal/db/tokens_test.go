package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeTokens(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, dedupeTokens([]string{"a", "b", "a", "", "c", "b"}))
	assert.Nil(t, dedupeTokens(nil))
}

func TestUnionTokens(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, unionTokens([]string{"a"}, "b"))
	assert.Equal(t, []string{"a", "b"}, unionTokens([]string{"a", "b"}, "a"))
}

func TestDifferenceTokens(t *testing.T) {
	assert.Equal(t, []string{"a", "c"}, differenceTokens([]string{"a", "b", "c"}, []string{"b", "x"}))
	assert.Equal(t, []string{"a"}, differenceTokens([]string{"a"}, nil))
	assert.Empty(t, differenceTokens([]string{"a"}, []string{"a"}))
}
