package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stockledger-api/internal/application/auth"
	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/stockledger-api/pkg/jwt"
)

const secret = "test-secret"

func newAuth(t *testing.T) *auth.AuthUseCase {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Companies().Create(context.Background(), &entity.Company{ID: "c1", Name: "Acme", TaxID: "900"}))
	return auth.NewAuthUseCase(store.Users(), store.Companies(), auth.JWTConfig{Secret: secret, ExpMinutes: 5, Issuer: "test"}).
		WithCost(bcrypt.MinCost)
}

func TestRegisterYLogin(t *testing.T) {
	uc := newAuth(t)
	u, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{
		Email: "Ana@Acme.co", Password: "secreta123", CompanyID: "c1", Role: entity.RoleBodeguero,
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@acme.co", u.Email)
	assert.Equal(t, entity.UserStatusActive, u.Status)

	out, err := uc.Login(context.Background(), dto.LoginRequest{Email: "ana@acme.co", Password: "secreta123"})
	require.NoError(t, err)
	userID, companyID, role, err := jwt.Parse(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
	assert.Equal(t, "c1", companyID)
	assert.Equal(t, entity.RoleBodeguero, role)
}

func TestRegister_Errores(t *testing.T) {
	uc := newAuth(t)
	in := dto.RegisterRequest{Email: "ana@acme.co", Password: "secreta123", CompanyID: "c1"}
	_, err := uc.RegisterUser(context.Background(), in)
	require.NoError(t, err)

	_, err = uc.RegisterUser(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	_, err = uc.RegisterUser(context.Background(), dto.RegisterRequest{Email: "x@acme.co", Password: "secreta123", CompanyID: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.RegisterUser(context.Background(), dto.RegisterRequest{Email: "y@acme.co", Password: "secreta123", CompanyID: "c1", Role: "root"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	uc := newAuth(t)
	_, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Email: "ana@acme.co", Password: "secreta123", CompanyID: "c1"})
	require.NoError(t, err)

	_, err = uc.Login(context.Background(), dto.LoginRequest{Email: "ana@acme.co", Password: "otra-clave"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(context.Background(), dto.LoginRequest{Email: "nadie@acme.co", Password: "secreta123"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
