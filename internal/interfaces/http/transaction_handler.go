package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// TransactionHandler movimientos de inventario y lectura del ledger.
type TransactionHandler struct {
	engine *inventory.Engine
	query  *inventory.QueryUseCase
}

func NewTransactionHandler(engine *inventory.Engine, query *inventory.QueryUseCase) *TransactionHandler {
	return &TransactionHandler{engine: engine, query: query}
}

// Create godoc
// @Summary      Registrar entrada o salida
// @Description  Una o varias líneas; todas se aplican o ninguna. Errores: INSUFFICIENT_STOCK, NO_STOCK, CAPACITY_EXCEEDED, VALIDATION.
// @Tags         transactions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransactionRequest  true  "Tipo y líneas"
// @Success      201   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/transactions [post]
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	lines := make([]inventory.LineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, inventory.LineInput{WarehouseID: l.WarehouseID, ItemID: l.ItemID, Quantity: l.Quantity})
	}
	out, err := h.engine.CreateTransaction(c.UserContext(), inventory.CreateTransactionInput{
		CompanyID: GetCompanyID(c),
		ActorID:   GetUserID(c),
		Type:      entity.TransactionType(strings.ToUpper(strings.TrimSpace(in.Type))),
		Note:      in.Note,
		Lines:     lines,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Transfer godoc
// @Summary      Transferir entre bodegas
// @Description  Errores: SAME_WAREHOUSE, NO_STOCK, INSUFFICIENT_STOCK, CAPACITY_EXCEEDED.
// @Tags         transactions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "Origen, destino, ítem y cantidad"
// @Success      201   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/transactions/transfer [post]
func (h *TransactionHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.engine.TransferInventory(c.UserContext(), inventory.TransferInput{
		CompanyID:       GetCompanyID(c),
		ActorID:         GetUserID(c),
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		ItemID:          in.ItemID,
		Quantity:        in.Quantity,
		Note:            in.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar transacciones (más reciente primero)
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        type          query  string  false  "INBOUND | OUTBOUND | TRANSFER"
// @Param        warehouse_id  query  string  false  "Filtra por bodega"
// @Param        item_id       query  string  false  "Filtra por ítem"
// @Param        limit         query  int     false  "Límite"  default(20)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.TransactionListResponse
// @Router       /api/transactions [get]
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	out, err := h.query.ListTransactions(c.UserContext(), GetCompanyID(c), repository.TransactionFilter{
		Type:        entity.TransactionType(strings.ToUpper(c.Query("type"))),
		WarehouseID: c.Query("warehouse_id"),
		ItemID:      c.Query("item_id"),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener transacción
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la transacción"
// @Success      200  {object}  dto.TransactionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id} [get]
func (h *TransactionHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.query.GetTransaction(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// PDF godoc
// @Summary      Comprobante PDF de la transacción
// @Tags         transactions
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la transacción"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id}/pdf [get]
func (h *TransactionHandler) PDF(c *fiber.Ctx) error {
	id := c.Params("id")
	doc, err := h.query.TransactionReceipt(c.UserContext(), GetCompanyID(c), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="transaccion-`+id+`.pdf"`)
	return c.Send(doc)
}
