package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	apphttp "github.com/jhoicas/stockledger-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/stockledger-api/pkg/jwt"
)

const (
	mwSecret    = "secreto-de-pruebas-del-middleware"
	mwUserID    = "4d2c0f7e-1b3a-4e5f-9a8b-7c6d5e4f3a21"
	mwCompanyID = "9b8a7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
)

// guardedApp monta GET /movimientos detrás de AuthMiddleware + RequireRole(roles...).
// El handler devuelve lo que quedó en locals.
func guardedApp(roles ...string) *fiber.App {
	app := fiber.New()
	app.Get("/movimientos",
		apphttp.AuthMiddleware(mwSecret),
		apphttp.RequireRole(roles...),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"user_id":    apphttp.GetUserID(c),
				"company_id": apphttp.GetCompanyID(c),
				"role":       apphttp.GetRole(c),
			})
		},
	)
	return app
}

func signed(t *testing.T, secret, role string, expMinutes int) string {
	t.Helper()
	tok, err := pkgjwt.Generate(secret, mwUserID, mwCompanyID, role, "stockledger-test", expMinutes)
	require.NoError(t, err)
	return tok
}

func get(t *testing.T, app *fiber.App, authorization string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/movimientos", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func errorCode(t *testing.T, resp *http.Response) dto.ErrorResponse {
	t.Helper()
	defer resp.Body.Close()
	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestRequireRole_Movimientos(t *testing.T) {
	// Mismo guardia que POST /api/transactions.
	app := guardedApp(entity.RoleAdmin, entity.RoleBodeguero)

	cases := []struct {
		role   string
		status int
		code   string
	}{
		{entity.RoleAdmin, fiber.StatusOK, ""},
		{entity.RoleBodeguero, fiber.StatusOK, ""},
		{entity.RoleVendedor, fiber.StatusForbidden, "FORBIDDEN"},
		{"", fiber.StatusUnauthorized, "MISSING_ROLE"},
	}
	for _, tc := range cases {
		t.Run("rol "+tc.role, func(t *testing.T) {
			resp := get(t, app, "Bearer "+signed(t, mwSecret, tc.role, 60))
			assert.Equal(t, tc.status, resp.StatusCode)
			if tc.code != "" {
				assert.Equal(t, tc.code, errorCode(t, resp).Code)
			}
		})
	}
}

func TestRequireRole_MensajeNombraRolesPermitidos(t *testing.T) {
	app := guardedApp(entity.RoleAdmin, entity.RoleBodeguero)

	resp := get(t, app, "Bearer "+signed(t, mwSecret, entity.RoleVendedor, 60))
	body := errorCode(t, resp)
	assert.Equal(t, "FORBIDDEN", body.Code)
	assert.Contains(t, body.Message, "vendedor")
	assert.Contains(t, body.Message, "admin o bodeguero")
}

func TestAuthMiddleware_RechazaCredenciales(t *testing.T) {
	app := guardedApp(entity.RoleAdmin)

	cases := []struct {
		name          string
		authorization string
		code          string
	}{
		{"sin cabecera", "", "MISSING_TOKEN"},
		{"otro esquema", "Basic dXNlcjpwYXNz", "INVALID_TOKEN"},
		{"malformado", "Bearer no.es.un-jwt", "INVALID_TOKEN"},
		{"otro secreto", "Bearer " + signed(t, "otro-secreto", entity.RoleAdmin, 60), "INVALID_TOKEN"},
		{"expirado", "Bearer " + signed(t, mwSecret, entity.RoleAdmin, -5), "INVALID_TOKEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := get(t, app, tc.authorization)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tc.code, errorCode(t, resp).Code)
		})
	}
}

func TestAuthMiddleware_CargaLocals(t *testing.T) {
	app := guardedApp(entity.RoleBodeguero)

	resp := get(t, app, "bearer "+signed(t, mwSecret, entity.RoleBodeguero, 60))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, mwUserID, got["user_id"])
	assert.Equal(t, mwCompanyID, got["company_id"])
	assert.Equal(t, entity.RoleBodeguero, got["role"])
}
