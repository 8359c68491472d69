package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverEmbedded(t *testing.T) {
	ms, err := Discover()
	require.NoError(t, err)
	require.NotEmpty(t, ms)
	assert.Equal(t, "001", ms[0].Version)
	assert.Equal(t, "001_sales_documents.sql", ms[0].Filename)
	assert.Len(t, ms[0].Checksum, 64)
	assert.Contains(t, ms[0].SQL, "company_counters")
}

func TestDiscoverSortsAndSkipsNonSQL(t *testing.T) {
	fsys := fstest.MapFS{
		"002_b.sql": {Data: []byte("SELECT 2")},
		"001_a.sql": {Data: []byte("SELECT 1")},
		"README.md": {Data: []byte("docs")},
		"010_c.sql": {Data: []byte("SELECT 10")},
	}
	ms, err := discover(fsys)
	require.NoError(t, err)
	require.Len(t, ms, 3)
	assert.Equal(t, []string{"001", "002", "010"}, []string{ms[0].Version, ms[1].Version, ms[2].Version})
}

func TestDiscoverRejectsDuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1")},
		"001_b.sql": {Data: []byte("SELECT 1")},
	}
	_, err := discover(fsys)
	assert.ErrorContains(t, err, "duplicate migration version 001")
}

func TestDiscoverRejectsBadFilename(t *testing.T) {
	fsys := fstest.MapFS{"schema.sql": {Data: []byte("SELECT 1")}}
	_, err := discover(fsys)
	assert.ErrorContains(t, err, "invalid migration filename")
}
