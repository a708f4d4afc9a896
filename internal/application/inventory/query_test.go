package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

type fakeRenderer struct {
	company *entity.Company
	tx      *dto.TransactionResponse
}

func (r *fakeRenderer) RenderTransaction(_ context.Context, company *entity.Company, tx *dto.TransactionResponse) ([]byte, error) {
	r.company, r.tx = company, tx
	return []byte("%PDF-1.4"), nil
}

func newQuery(f *fixture, renderer inventory.ReceiptRenderer) *inventory.QueryUseCase {
	return inventory.NewQueryUseCase(inventory.QueryDeps{
		Transactions: f.store.Transactions(),
		Inventory:    f.store.Inventory(),
		Warehouses:   f.store.Warehouses(),
		Items:        f.store.Items(),
		Users:        f.store.Users(),
		Companies:    f.store.Companies(),
		Receipts:     renderer,
	})
}

func TestQuery_GetTransactionConDatosDeDespliegue(t *testing.T) {
	f := newFixture(t, 1000, 500)
	f.inbound(t, whA, itemX, 40)
	created := f.ledger(t)[0]

	q := newQuery(f, nil)
	out, err := q.GetTransaction(context.Background(), companyID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", out.CreatedBy.Name)
	assert.Equal(t, "Central", out.Lines[0].Warehouse.Name)
	assert.Equal(t, "Tornillo", out.Lines[0].Item.Name)

	_, err = q.GetTransaction(context.Background(), otherCompanyID, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "otra empresa no ve la transacción")
}

func TestQuery_ListTransactionsFiltraPorTipoYBodega(t *testing.T) {
	f := newFixture(t, 1000, 500)
	f.inbound(t, whA, itemX, 40)
	f.inbound(t, whB, itemY, 5)
	_, err := f.engine.TransferInventory(context.Background(), inventory.TransferInput{
		CompanyID: companyID, ActorID: actorID, FromWarehouseID: whA, ToWarehouseID: whB, ItemID: itemX, Quantity: dec(4),
	})
	require.NoError(t, err)

	q := newQuery(f, nil)
	all, err := q.ListTransactions(context.Background(), companyID, repository.TransactionFilter{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all.Items, 3)

	inbound, err := q.ListTransactions(context.Background(), companyID, repository.TransactionFilter{Type: entity.TransactionInbound, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, inbound.Items, 2)

	byB, err := q.ListTransactions(context.Background(), companyID, repository.TransactionFilter{WarehouseID: whB, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, byB.Items, 2)

	_, err = q.ListTransactions(context.Background(), companyID, repository.TransactionFilter{Type: "AJUSTE"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQuery_UtilizacionDeBodega(t *testing.T) {
	f := newFixture(t, 1000, 500)
	f.inbound(t, whA, itemX, 150)
	f.inbound(t, whA, itemY, 100)

	out, err := newQuery(f, nil).WarehouseUtilization(context.Background(), companyID, whA)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), out.Capacity)
	assert.True(t, out.Used.Equal(dec(250)))
	assert.True(t, out.Available.Equal(dec(750)))
	assert.Equal(t, "25", out.Percentage.String())

	_, err = newQuery(f, nil).WarehouseUtilization(context.Background(), companyID, whForeign)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuery_ListInventoryConNombres(t *testing.T) {
	f := newFixture(t, 1000, 500)
	f.inbound(t, whA, itemX, 7)
	f.inbound(t, whB, itemX, 3)

	out, err := newQuery(f, nil).ListInventory(context.Background(), companyID, repository.InventoryFilter{WarehouseID: whB, Limit: 20})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Norte", out.Items[0].Warehouse.Name)
	assert.Equal(t, "TOR-01", out.Items[0].Item.SKU)
	assert.True(t, out.Items[0].Quantity.Equal(dec(3)))
}

func TestQuery_ReciboPDF(t *testing.T) {
	f := newFixture(t, 1000, 500)
	f.inbound(t, whA, itemX, 7)
	id := f.ledger(t)[0].ID

	r := &fakeRenderer{}
	pdf, err := newQuery(f, r).TransactionReceipt(context.Background(), companyID, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), pdf)
	assert.Equal(t, "Acme", r.company.Name)
	assert.Equal(t, id, r.tx.ID)
}
