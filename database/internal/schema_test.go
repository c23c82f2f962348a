package internal_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/zipstream/database/internal"
)

func TestCompareSchema(t *testing.T) {
	want := internal.Schema{
		"id":      {Type: "text", Nullable: false},
		"archive": {Type: "text", Nullable: false},
		"chunks":  {Type: "integer", Nullable: false},
	}

	t.Run("match ignores case and extra columns", func(t *testing.T) {
		actual := internal.Schema{
			"id":      {Type: "TEXT"},
			"archive": {Type: "text"},
			"chunks":  {Type: "INTEGER"},
			"comment": {Type: "text", Nullable: true},
		}

		assert.NoError(t, internal.CompareSchema("downloads", want, actual))
	})

	t.Run("reports every difference", func(t *testing.T) {
		actual := internal.Schema{
			"archive": {Type: "text", Nullable: true},
			"chunks":  {Type: "TEXT"},
		}

		err := internal.CompareSchema("downloads", want, actual)

		var schemaErr *internal.SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Equal(t, "downloads", schemaErr.Table)
		assert.Equal(t, []string{"id"}, schemaErr.Missing)
		assert.Equal(t, []string{
			"archive: expected nullable=false, got nullable=true",
			"chunks: expected integer, got text",
		}, schemaErr.Mismatched)
		assert.Contains(t, err.Error(), "missing columns: id")
	})
}
