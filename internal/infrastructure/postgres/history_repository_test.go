package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

func TestSnapshotCodec_RespetaElTipo(t *testing.T) {
	raw, err := encodeSnapshot(entity.WarehouseSnapshot{Name: "Central", Location: "Bogotá", Capacity: 500})
	require.NoError(t, err)

	s, err := decodeSnapshot(entity.KindWarehouse, raw)
	require.NoError(t, err)
	w, ok := s.(entity.WarehouseSnapshot)
	require.True(t, ok)
	assert.Equal(t, int64(500), w.Capacity)

	none, err := decodeSnapshot(entity.KindItem, nil)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = decodeSnapshot("customer", raw)
	assert.Error(t, err)
}
