package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xraph/grove"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestNew_AcceptsGroveDB(t *testing.T) {
	var ctor func(*grove.DB, ...Option) *Ledger = New
	assert.NotNil(t, ctor)

	var l Ledger
	assert.Nil(t, l.DB())
}

func TestMigrationIndexes(t *testing.T) {
	idx := migrationIndexes()

	require.Contains(t, idx, colContracts)
	require.Contains(t, idx, colCommands)

	entity := idx[colContracts][0]
	assert.Equal(t, bson.D{
		{Key: "lineage", Value: 1},
		{Key: "kind", Value: 1},
		{Key: "entity_id", Value: 1},
	}, entity.Keys)
	assert.NotNil(t, entity.Options)
}

func TestIsNoDocuments(t *testing.T) {
	assert.False(t, isNoDocuments(nil))
}
