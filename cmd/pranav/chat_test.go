package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsExitCommand(t *testing.T) {
	assert.True(t, isExitCommand("exit"))
	assert.True(t, isExitCommand("quit"))
	assert.True(t, isExitCommand("EXIT"))
	assert.True(t, isExitCommand("Quit"))

	assert.False(t, isExitCommand(""))
	assert.False(t, isExitCommand("hello"))
	assert.False(t, isExitCommand("exit now"))
}
