package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitIDs(t *testing.T) {
	assert.Equal(t, []string{"A", "B:C:"}, splitIDs(" A, ,B:C: ,"))
	assert.Nil(t, splitIDs(""))
}
