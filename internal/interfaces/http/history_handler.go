package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/usecase"
)

type HistoryHandler struct {
	uc *usecase.HistoryUseCase
}

func NewHistoryHandler(uc *usecase.HistoryUseCase) *HistoryHandler {
	return &HistoryHandler{uc: uc}
}

// List godoc
// @Summary      Historial de cambios de una bodega o ítem
// @Tags         history
// @Security     Bearer
// @Produce      json
// @Param        kind  path  string  true  "warehouse | item"
// @Param        id    path  string  true  "ID de la entidad"
// @Success      200   {array}   dto.HistoryEntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/history/{kind}/{id} [get]
func (h *HistoryHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), GetCompanyID(c), c.Params("kind"), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
