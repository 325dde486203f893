package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_AreDistinct(t *testing.T) {
	assert.NotEqual(t, ErrMissingRAGService.Error(), ErrInvalidPorts.Error())
}

func TestErrMissingRAGService_Message(t *testing.T) {
	assert.Contains(t, ErrMissingRAGService.Error(), "rag service")
}

func TestErrInvalidPorts_Message(t *testing.T) {
	assert.Contains(t, ErrInvalidPorts.Error(), "invalid ports")
}
