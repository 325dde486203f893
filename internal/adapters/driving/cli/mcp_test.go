package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/mcp"
)

func TestMCPCmd_Registered(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"mcp", "serve"})
	require.NoError(t, err)
	assert.Equal(t, "serve", cmd.Name())
	assert.NotNil(t, cmd.Flags().Lookup("http"))
	assert.NotNil(t, cmd.Flags().Lookup("metrics"))
}

func TestMCPServe_MetricsRequiresHTTP(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute(t, "mcp", "serve", "--metrics")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--metrics requires --http")
}

func TestMCPServe_ServiceNotConfigured(t *testing.T) {
	oldService := ragService
	ragService = nil
	defer func() { ragService = oldService }()

	_, _, err := execute(t, "mcp", "serve")

	assert.ErrorIs(t, err, mcp.ErrMissingRAGService)
}
