package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stockledger-api/internal/application/auth"
	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/application/notification"
	"github.com/jhoicas/stockledger-api/internal/application/usecase"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/stockledger-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/stockledger-api/pkg/jwt"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

const (
	testCompanyID = "00000000-0000-0000-0000-0000000000e1"
	testJWTSecret = "secreto-de-pruebas-del-router"
	testIssuer    = "stockledger-test"
	testExpMin    = 60

	adminID     = "00000000-0000-0000-0000-0000000000a1"
	bodegueroID = "00000000-0000-0000-0000-0000000000b1"
	vendedorID  = "00000000-0000-0000-0000-0000000000c1"
)

// fakeSubscriber entrega lo precargado y cierra el canal.
type fakeSubscriber struct {
	pending []dto.NotificationResponse
	userID  string
}

func (f *fakeSubscriber) Subscribe(_ context.Context, userID string) (<-chan dto.NotificationResponse, error) {
	f.userID = userID
	ch := make(chan dto.NotificationResponse, len(f.pending))
	for _, n := range f.pending {
		ch <- n
	}
	close(ch)
	return ch, nil
}

type apiFixture struct {
	app        *fiber.App
	store      *memory.Store
	dispatcher *inventory.Dispatcher
}

func newAPI(t *testing.T, stream notification.Subscriber) *apiFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: testCompanyID, Name: "Acme", TaxID: "900123"}))
	for _, u := range []entity.User{
		{ID: adminID, Email: "admin@acme.co", Name: "Admin", Role: entity.RoleAdmin},
		{ID: bodegueroID, Email: "beto@acme.co", Name: "Beto", Role: entity.RoleBodeguero},
		{ID: vendedorID, Email: "vero@acme.co", Name: "Vero", Role: entity.RoleVendedor},
	} {
		u.CompanyID = testCompanyID
		u.Status = entity.UserStatusActive
		require.NoError(t, store.Users().Create(ctx, &u))
	}

	log := logger.Nop()
	notifSvc := notification.NewService(store.Notifications(), store.Users(), nil, log)
	dispatcher := inventory.NewDispatcher(log, time.Second, notification.NewHook(notifSvc, notification.NewComposer("es")))
	engine := inventory.NewEngine(store, dispatcher)
	query := inventory.NewQueryUseCase(inventory.QueryDeps{
		Transactions: store.Transactions(),
		Inventory:    store.Inventory(),
		Warehouses:   store.Warehouses(),
		Items:        store.Items(),
		Users:        store.Users(),
		Companies:    store.Companies(),
		Receipts:     pdf.NewReceiptRenderer(),
	})

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	apphttp.Router(app, apphttp.RouterDeps{
		AppName:       "stockledger-test",
		CompanyUC:     usecase.NewCompanyUseCase(store.Companies()),
		WarehouseUC:   usecase.NewWarehouseUseCase(store, store.Warehouses()),
		ItemUC:        usecase.NewItemUseCase(store, store.Items()),
		HistoryUC:     usecase.NewHistoryUseCase(store.History()),
		UserUC:        usecase.NewUserUseCase(store.Users()),
		Engine:        engine,
		Query:         query,
		Notifications: notifSvc,
		Stream:        stream,
		AuthUC: auth.NewAuthUseCase(store.Users(), store.Companies(), auth.JWTConfig{
			Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer,
		}).WithCost(bcrypt.MinCost),
		JWTSecret: testJWTSecret,
	})
	return &apiFixture{app: app, store: store, dispatcher: dispatcher}
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, userID, testCompanyID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (f *apiFixture) do(t *testing.T, method, path, auth string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// seedCatalog crea una bodega y un ítem como admin.
func (f *apiFixture) seedCatalog(t *testing.T, capacity int64) (warehouseID, itemID string) {
	t.Helper()
	admin := bearer(t, adminID, entity.RoleAdmin)
	resp := f.do(t, http.MethodPost, "/api/warehouses", admin, dto.CreateWarehouseRequest{Name: "Central", Location: "Bogotá", Capacity: capacity})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	w := decode[dto.WarehouseResponse](t, resp)

	resp = f.do(t, http.MethodPost, "/api/items", admin, dto.CreateItemRequest{SKU: "TOR-01", Name: "Tornillo", Unit: "unidades"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	it := decode[dto.ItemResponse](t, resp)
	return w.ID, it.ID
}

func inbound(warehouseID, itemID string, qty int64) dto.CreateTransactionRequest {
	return dto.CreateTransactionRequest{
		Type:  "INBOUND",
		Lines: []dto.TransactionLineRequest{{WarehouseID: warehouseID, ItemID: itemID, Quantity: decimal.NewFromInt(qty)}},
	}
}

func TestHealth(t *testing.T) {
	f := newAPI(t, nil)
	resp := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "stockledger-test", body["service"])
}

func TestTransactions_EntradaYConsulta(t *testing.T) {
	f := newAPI(t, nil)
	wh, item := f.seedCatalog(t, 100)
	beto := bearer(t, bodegueroID, entity.RoleBodeguero)

	resp := f.do(t, http.MethodPost, "/api/transactions", beto, inbound(wh, item, 40))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	tx := decode[dto.TransactionResponse](t, resp)
	assert.Equal(t, "INBOUND", tx.Type)
	require.Len(t, tx.Lines, 1)
	assert.Equal(t, "Central", tx.Lines[0].Warehouse.Name)
	assert.True(t, tx.Lines[0].SignedQuantity.Equal(decimal.NewFromInt(40)))

	resp = f.do(t, http.MethodGet, "/api/transactions/"+tx.ID, beto, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/transactions?type=inbound&warehouse_id="+wh, beto, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.TransactionListResponse](t, resp)
	assert.Len(t, list.Items, 1)

	resp = f.do(t, http.MethodGet, "/api/inventory?warehouse_id="+wh, beto, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	inv := decode[dto.InventoryListResponse](t, resp)
	require.Len(t, inv.Items, 1)
	assert.True(t, inv.Items[0].Quantity.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, "Tornillo", inv.Items[0].Item.Name)

	resp = f.do(t, http.MethodGet, "/api/warehouses/"+wh+"/utilization", beto, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	util := decode[dto.WarehouseUtilizationResponse](t, resp)
	assert.True(t, util.Percentage.Equal(decimal.NewFromInt(40)))
	assert.True(t, util.Available.Equal(decimal.NewFromInt(60)))
}

func TestTransactions_ReglasComoCodigos(t *testing.T) {
	f := newAPI(t, nil)
	wh, item := f.seedCatalog(t, 50)
	beto := bearer(t, bodegueroID, entity.RoleBodeguero)

	resp := f.do(t, http.MethodPost, "/api/transactions", beto, inbound(wh, item, 60))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "CAPACITY_EXCEEDED", decode[dto.ErrorResponse](t, resp).Code)

	out := inbound(wh, item, 1)
	out.Type = "OUTBOUND"
	resp = f.do(t, http.MethodPost, "/api/transactions", beto, out)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "NO_STOCK", decode[dto.ErrorResponse](t, resp).Code)

	resp = f.do(t, http.MethodPost, "/api/transactions/transfer", beto, dto.TransferRequest{
		FromWarehouseID: wh, ToWarehouseID: wh, ItemID: item, Quantity: decimal.NewFromInt(1),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "SAME_WAREHOUSE", decode[dto.ErrorResponse](t, resp).Code)

	resp = f.do(t, http.MethodPost, "/api/transactions", beto, inbound(wh, "00000000-0000-0000-0000-00000000dead", 1))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decode[dto.ErrorResponse](t, resp).Code)

	resp = f.do(t, http.MethodPost, "/api/transactions", beto, inbound("abc", item, 1))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	e := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "NOT_FOUND", e.Code)
	assert.Contains(t, e.Message, "abc")

	resp = f.do(t, http.MethodGet, "/api/transactions/abc", beto, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/transactions?type=RETURN", beto, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTransactions_VendedorNoMueveStock(t *testing.T) {
	f := newAPI(t, nil)
	wh, item := f.seedCatalog(t, 100)
	resp := f.do(t, http.MethodPost, "/api/transactions", bearer(t, vendedorID, entity.RoleVendedor), inbound(wh, item, 1))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCatalogo_SoloAdminEscribe(t *testing.T) {
	f := newAPI(t, nil)
	resp := f.do(t, http.MethodPost, "/api/warehouses", bearer(t, bodegueroID, entity.RoleBodeguero),
		dto.CreateWarehouseRequest{Name: "X", Capacity: 1})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/warehouses", bearer(t, vendedorID, entity.RoleVendedor), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCatalogo_DuplicadosYBorrados(t *testing.T) {
	f := newAPI(t, nil)
	wh, item := f.seedCatalog(t, 100)
	admin := bearer(t, adminID, entity.RoleAdmin)

	resp := f.do(t, http.MethodPost, "/api/items", admin, dto.CreateItemRequest{SKU: "TOR-01", Name: "Otro", Unit: "u"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/transactions", admin, inbound(wh, item, 5))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.do(t, http.MethodDelete, "/api/warehouses/"+wh, admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "WAREHOUSE_NOT_EMPTY", decode[dto.ErrorResponse](t, resp).Code)

	resp = f.do(t, http.MethodDelete, "/api/items/"+item, admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "ITEM_IN_USE", decode[dto.ErrorResponse](t, resp).Code)

	small := int64(2)
	resp = f.do(t, http.MethodPut, "/api/warehouses/"+wh, admin, dto.UpdateWarehouseRequest{Capacity: &small})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "CAPACITY_EXCEEDED", decode[dto.ErrorResponse](t, resp).Code)
}

func TestHistory_RegistraCambiosDeBodega(t *testing.T) {
	f := newAPI(t, nil)
	wh, _ := f.seedCatalog(t, 100)
	admin := bearer(t, adminID, entity.RoleAdmin)

	name := "Central Norte"
	resp := f.do(t, http.MethodPut, "/api/warehouses/"+wh, admin, dto.UpdateWarehouseRequest{Name: &name})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/history/warehouse/"+wh, admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := decode[[]dto.HistoryEntryResponse](t, resp)
	require.Len(t, entries, 2)

	var actions []string
	for _, e := range entries {
		actions = append(actions, e.Action)
		assert.Equal(t, adminID, e.ChangedBy)
	}
	assert.ElementsMatch(t, []string{entity.HistoryCreate, entity.HistoryUpdate}, actions)

	resp = f.do(t, http.MethodGet, "/api/history/customer/"+wh, admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNotifications_FlujoCompleto(t *testing.T) {
	f := newAPI(t, nil)
	wh, item := f.seedCatalog(t, 100)

	resp := f.do(t, http.MethodPost, "/api/transactions", bearer(t, bodegueroID, entity.RoleBodeguero), inbound(wh, item, 10))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	f.dispatcher.Wait()

	vero := bearer(t, vendedorID, entity.RoleVendedor)
	resp = f.do(t, http.MethodGet, "/api/notifications?unread=true", vero, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.NotificationListResponse](t, resp)
	require.Len(t, list.Items, 1)
	assert.Equal(t, entity.NotificationInventoryInbound, list.Items[0].Type)
	assert.Contains(t, list.Items[0].Message, "Tornillo")

	// quien movió el stock no se notifica a sí mismo
	resp = f.do(t, http.MethodGet, "/api/notifications", bearer(t, bodegueroID, entity.RoleBodeguero), nil)
	assert.Empty(t, decode[dto.NotificationListResponse](t, resp).Items)

	resp = f.do(t, http.MethodPatch, "/api/notifications/"+list.Items[0].ID+"/read", vero, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodPatch, "/api/notifications/no-existe/read", vero, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/notifications/read-all", bearer(t, adminID, entity.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, decode[map[string]int64](t, resp)["updated"])
}

func TestNotifications_StreamSinRedis(t *testing.T) {
	f := newAPI(t, nil)
	resp := f.do(t, http.MethodGet, "/api/notifications/stream", bearer(t, adminID, entity.RoleAdmin), nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestNotifications_StreamEntregaEventos(t *testing.T) {
	sub := &fakeSubscriber{pending: []dto.NotificationResponse{{ID: "n1", Type: "inventory_inbound", Title: "Entrada de inventario"}}}
	f := newAPI(t, sub)

	resp := f.do(t, http.MethodGet, "/api/notifications/stream", bearer(t, adminID, entity.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, adminID, sub.userID)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "id: n1\nevent: notification\ndata: {"))
}

func TestTransactionPDF(t *testing.T) {
	f := newAPI(t, nil)
	wh, item := f.seedCatalog(t, 100)
	admin := bearer(t, adminID, entity.RoleAdmin)
	resp := f.do(t, http.MethodPost, "/api/transactions", admin, inbound(wh, item, 3))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	tx := decode[dto.TransactionResponse](t, resp)

	resp = f.do(t, http.MethodGet, "/api/transactions/"+tx.ID+"/pdf", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestCompanies_AltaPublicaYConsultaPropia(t *testing.T) {
	f := newAPI(t, nil)
	resp := f.do(t, http.MethodPost, "/api/companies", "", dto.CreateCompanyRequest{Name: "Nueva", TaxID: "800"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.CompanyResponse](t, resp)

	resp = f.do(t, http.MethodPost, "/api/companies", "", dto.CreateCompanyRequest{Name: "Repetida", TaxID: "800"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	admin := bearer(t, adminID, entity.RoleAdmin)
	resp = f.do(t, http.MethodGet, "/api/companies/"+testCompanyID, admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = f.do(t, http.MethodGet, "/api/companies/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAuth_RegistroYLogin(t *testing.T) {
	f := newAPI(t, nil)
	resp := f.do(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Email: "nuevo@acme.co", Password: "supersecreta", CompanyID: testCompanyID, Role: entity.RoleBodeguero,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Email: "nuevo@acme.co", Password: "supersecreta", CompanyID: testCompanyID,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "nuevo@acme.co", Password: "supersecreta"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[dto.LoginResponse](t, resp)
	_, _, role, err := pkgjwt.Parse(testJWTSecret, login.Token)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleBodeguero, role)

	resp = f.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "nuevo@acme.co", Password: "incorrecta"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUsers_InactivoNoRecibeNotificaciones(t *testing.T) {
	f := newAPI(t, nil)
	wh, item := f.seedCatalog(t, 100)
	admin := bearer(t, adminID, entity.RoleAdmin)

	resp := f.do(t, http.MethodGet, "/api/users/me", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "admin@acme.co", decode[dto.UserResponse](t, resp).Email)

	resp = f.do(t, http.MethodPatch, "/api/users/"+vendedorID+"/status", bearer(t, bodegueroID, entity.RoleBodeguero),
		dto.UpdateUserStatusRequest{Status: entity.UserStatusInactive})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodPatch, "/api/users/"+vendedorID+"/status", admin, dto.UpdateUserStatusRequest{Status: entity.UserStatusInactive})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/transactions", bearer(t, bodegueroID, entity.RoleBodeguero), inbound(wh, item, 2))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	f.dispatcher.Wait()

	resp = f.do(t, http.MethodGet, "/api/notifications", bearer(t, vendedorID, entity.RoleVendedor), nil)
	assert.Empty(t, decode[dto.NotificationListResponse](t, resp).Items)
	resp = f.do(t, http.MethodGet, "/api/notifications", admin, nil)
	assert.Len(t, decode[dto.NotificationListResponse](t, resp).Items, 1)
}
