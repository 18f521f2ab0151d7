package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type Auditable struct {
	Actor string `db:"actor"`
}

type sampleRow struct {
	Auditable
	ID       int      `db:"id"`
	Name     string   `db:"name"`
	Children []string `db:"-"`
	note     string   `db:"note"`
	Untagged bool
}

func TestExtractDBColumns(t *testing.T) {
	assert.Equal(t, []string{"actor", "id", "name"}, ExtractDBColumns[sampleRow]())
	assert.Equal(t, []string{"actor", "id", "name"}, ExtractDBColumns[*sampleRow]())
}

func TestStructToMap(t *testing.T) {
	row := &sampleRow{
		Auditable: Auditable{Actor: "staff-1"},
		ID:        7,
		Name:      "B.Com.",
		Children:  []string{"x"},
		note:      "hidden",
		Untagged:  true,
	}

	m := StructToMap(row)

	assert.Equal(t, map[string]any{"actor": "staff-1", "id": 7, "name": "B.Com."}, m)
	assert.Nil(t, StructToMap((*sampleRow)(nil)))
	assert.Nil(t, StructToMap(42))
}
