package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// InventoryHandler consulta de existencias.
type InventoryHandler struct {
	query *inventory.QueryUseCase
}

func NewInventoryHandler(query *inventory.QueryUseCase) *InventoryHandler {
	return &InventoryHandler{query: query}
}

// List godoc
// @Summary      Existencias por bodega e ítem
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Filtra por bodega"
// @Param        item_id       query  string  false  "Filtra por ítem"
// @Param        limit         query  int     false  "Límite"  default(20)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.InventoryListResponse
// @Router       /api/inventory [get]
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	out, err := h.query.ListInventory(c.UserContext(), GetCompanyID(c), repository.InventoryFilter{
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
