package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor_DialectsHaveSameVersions(t *testing.T) {
	pg, err := For("postgres")
	require.NoError(t, err)
	lite, err := For("sqlite")
	require.NoError(t, err)

	pgFiles, err := fs.Glob(pg, "*.sql")
	require.NoError(t, err)
	liteFiles, err := fs.Glob(lite, "*.sql")
	require.NoError(t, err)

	require.NotEmpty(t, pgFiles)
	assert.Equal(t, pgFiles, liteFiles)
}

func TestFor_UnknownDialect(t *testing.T) {
	_, err := For("oracle")
	require.Error(t, err)
}
