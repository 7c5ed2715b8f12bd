package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/eolscan/internal/core/domain"
)

func TestLookupCmd_Use(t *testing.T) {
	assert.Equal(t, "lookup <name> [version]", lookupCmd.Use)
}

func TestLookupCmd_RequiresName(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "", "lookup")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts between 1 and 2 arg(s)")
}

func TestLookupCmd_PrintsResult(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "", "lookup", "CentOS", "7", "--publisher", "CentOS Project")

	require.NoError(t, err)
	assert.Equal(t, domain.SoftwareRecord{Name: "CentOS", Version: "7", Publisher: "CentOS Project"}, env.lookup.gotRecord)
	assert.Contains(t, out, "CentOS 7")
	assert.Contains(t, out, "critical")
	assert.Contains(t, out, "2020-06-30")
	assert.Contains(t, out, "endoflife-distro")
	assert.Contains(t, out, "0.95")
}

func TestLookupCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "", "lookup", "CentOS", "--json")

	require.NoError(t, err)
	var rec domain.EnrichedRecord
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "centos@7", rec.QueryKey)
}

func TestLookupCmd_Failure(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()
	env.lookup.err = errBoom

	_, err := execute(t, "", "lookup", "CentOS")

	assert.ErrorIs(t, err, errBoom)
}
