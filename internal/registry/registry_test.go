package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsweep/netsweep/internal/errors"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "networks.json"))
}

func TestRegistryAdd(t *testing.T) {
	reg := testRegistry(t)

	network, err := reg.Add("home", "192.168.1.50/24", "main LAN")
	require.NoError(t, err)

	// CIDR is canonicalized to the network address.
	assert.Equal(t, "192.168.1.0/24", network.CIDR)
	assert.Equal(t, "home", network.Name)
	assert.True(t, network.Enabled)
	assert.Zero(t, network.ScanCount)
	assert.Nil(t, network.LastScan)
}

func TestRegistryAddValidation(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name string
		net  string
		cidr string
	}{
		{name: "empty name", net: "", cidr: "10.0.0.0/8"},
		{name: "bare address", net: "x", cidr: "10.0.0.1"},
		{name: "garbage", net: "x", cidr: "not-a-network"},
		{name: "bad prefix", net: "x", cidr: "10.0.0.0/99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Add(tt.net, tt.cidr, "")
			require.Error(t, err)
			assert.Equal(t, errors.CodeValidation, errors.GetCode(err))
		})
	}
}

func TestRegistryAddOverwrites(t *testing.T) {
	reg := testRegistry(t)

	_, err := reg.Add("lab", "10.0.0.0/24", "first")
	require.NoError(t, err)
	_, err = reg.Add("lab", "10.0.1.0/24", "second")
	require.NoError(t, err)

	network, err := reg.Get("lab")
	require.NoError(t, err)
	assert.Equal(t, "10.0.1.0/24", network.CIDR)
	assert.Equal(t, "second", network.Description)
}

func TestRegistryRemove(t *testing.T) {
	reg := testRegistry(t)

	_, err := reg.Add("lab", "10.0.0.0/24", "")
	require.NoError(t, err)
	require.NoError(t, reg.Remove("lab"))

	_, err = reg.Get("lab")
	assert.True(t, errors.IsNotFound(err))

	err = reg.Remove("lab")
	assert.True(t, errors.IsNotFound(err))
}

func TestRegistryEnableDisable(t *testing.T) {
	reg := testRegistry(t)

	_, err := reg.Add("home", "192.168.1.0/24", "")
	require.NoError(t, err)
	_, err = reg.Add("lab", "10.0.0.0/24", "")
	require.NoError(t, err)

	require.NoError(t, reg.SetEnabled("lab", false))

	enabled := reg.ListEnabled()
	require.Len(t, enabled, 1)
	assert.Equal(t, "home", enabled[0].Name)

	all := reg.List()
	require.Len(t, all, 2)
	assert.Equal(t, "home", all[0].Name)
	assert.Equal(t, "lab", all[1].Name)

	assert.True(t, errors.IsNotFound(reg.SetEnabled("nope", true)))
}

func TestRegistryRecordScanStarted(t *testing.T) {
	reg := testRegistry(t)

	_, err := reg.Add("home", "192.168.1.0/24", "")
	require.NoError(t, err)

	require.NoError(t, reg.RecordScanStarted("home"))
	require.NoError(t, reg.RecordScanStarted("home"))

	network, err := reg.Get("home")
	require.NoError(t, err)
	assert.Equal(t, 2, network.ScanCount)
	require.NotNil(t, network.LastScan)

	// Unknown names are a no-op, not an error.
	require.NoError(t, reg.RecordScanStarted("manual-cidr-sweep"))
}

func TestRegistryPersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.json")

	first := New(path)
	_, err := first.Add("home", "192.168.1.0/24", "persisted")
	require.NoError(t, err)

	second := New(path)
	network, err := second.Get("home")
	require.NoError(t, err)
	assert.Equal(t, "persisted", network.Description)
}

func TestRegistryCorruptDocumentRecovers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.json")
	require.NoError(t, os.WriteFile(path, []byte("][ not json"), 0600))

	reg := New(path)
	assert.Empty(t, reg.List())

	// The next mutation heals the store.
	_, err := reg.Add("home", "192.168.1.0/24", "")
	require.NoError(t, err)
	assert.Len(t, reg.List(), 1)
}
