package materials

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/taller-erp/taller-erp/internal/platform/httpx"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type memoryRepo struct {
	materials map[int64]*Material
	movements []Movement
	nextID    int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{materials: make(map[int64]*Material)}
}

func (r *memoryRepo) seed(m Material) *Material {
	r.nextID++
	m.ID = r.nextID
	r.materials[m.ID] = &m
	return &m
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Material, error) {
	if m, ok := r.materials[id]; ok {
		dup := *m
		return &dup, nil
	}
	return nil, httpx.ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context, req ListMaterialsRequest) ([]Material, int, error) {
	var result []Material
	for _, m := range r.materials {
		result = append(result, *m)
	}
	return result, len(result), nil
}

func (r *memoryRepo) Create(ctx context.Context, m Material) (int64, error) {
	m.IsActive = true
	return r.seed(m).ID, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, updates map[string]any) error {
	if _, ok := r.materials[id]; !ok {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *memoryRepo) SetActive(ctx context.Context, id int64, active bool) error {
	m, ok := r.materials[id]
	if !ok {
		return httpx.ErrNotFound
	}
	m.IsActive = active
	return nil
}

func (r *memoryRepo) ListMovements(ctx context.Context, req ListMovementsRequest) ([]Movement, int, error) {
	result := make([]Movement, len(r.movements))
	copy(result, r.movements)
	return result, len(result), nil
}

func (tx *memoryTx) GetMaterialForUpdate(ctx context.Context, id int64) (*Material, error) {
	return tx.repo.Get(ctx, id)
}

func (tx *memoryTx) AdjustStock(ctx context.Context, id int64, newStock decimal.Decimal) error {
	m, ok := tx.repo.materials[id]
	if !ok {
		return httpx.ErrNotFound
	}
	m.Stock = newStock
	return nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, m Movement) (int64, error) {
	tx.repo.nextID++
	m.ID = tx.repo.nextID
	tx.repo.movements = append(tx.repo.movements, m)
	return m.ID, nil
}

func TestRegisterMovementEntrada(t *testing.T) {
	repo := newMemoryRepo()
	mat := repo.seed(Material{Code: "ACE-01", Name: "Aceite 10W40", Unit: "lt", Stock: dec("3"), IsActive: true})
	svc := NewService(repo, nil)
	ctx := context.Background()

	mov, err := svc.RegisterMovement(ctx, CreateMovementRequest{MaterialID: mat.ID, EmployeeID: 7, Type: MovementIn, Quantity: dec("5")}, 1)
	require.NoError(t, err)
	require.Equal(t, MovementIn, mov.Type)

	got, err := repo.Get(ctx, mat.ID)
	require.NoError(t, err)
	require.True(t, got.Stock.Equal(dec("8")), "stock %s", got.Stock)
}

func TestRegisterMovementSalida(t *testing.T) {
	repo := newMemoryRepo()
	mat := repo.seed(Material{Code: "FIL-02", Name: "Filtro de aire", Unit: "un", Stock: dec("10"), IsActive: true})
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.RegisterMovement(ctx, CreateMovementRequest{MaterialID: mat.ID, EmployeeID: 7, Type: MovementOut, Quantity: dec("4")}, 1)
	require.NoError(t, err)

	got, err := repo.Get(ctx, mat.ID)
	require.NoError(t, err)
	require.True(t, got.Stock.Equal(dec("6")), "stock %s", got.Stock)
}

func TestRegisterMovementSalidaInsufficientStock(t *testing.T) {
	repo := newMemoryRepo()
	mat := repo.seed(Material{Code: "FIL-02", Name: "Filtro de aire", Unit: "un", Stock: dec("2"), IsActive: true})
	svc := NewService(repo, nil)

	_, err := svc.RegisterMovement(context.Background(), CreateMovementRequest{MaterialID: mat.ID, EmployeeID: 7, Type: MovementOut, Quantity: dec("3")}, 1)
	require.ErrorIs(t, err, httpx.ErrValidation)

	got, err := repo.Get(context.Background(), mat.ID)
	require.NoError(t, err)
	require.True(t, got.Stock.Equal(dec("2")), "stock %s", got.Stock)
	require.Empty(t, repo.movements)
}

func TestRegisterMovementSolicitudKeepsStock(t *testing.T) {
	repo := newMemoryRepo()
	mat := repo.seed(Material{Code: "TOR-03", Name: "Tornillo M8", Unit: "un", Stock: dec("50"), IsActive: true})
	svc := NewService(repo, nil)
	ctx := context.Background()

	mov, err := svc.RegisterMovement(ctx, CreateMovementRequest{MaterialID: mat.ID, EmployeeID: 2, Type: MovementRequest, Quantity: dec("10")}, 1)
	require.NoError(t, err)
	require.NotZero(t, mov.ID)

	got, err := repo.Get(ctx, mat.ID)
	require.NoError(t, err)
	require.True(t, got.Stock.Equal(dec("50")), "stock %s", got.Stock)
}

func TestRegisterMovementFractionalQuantities(t *testing.T) {
	repo := newMemoryRepo()
	mat := repo.seed(Material{Code: "ACE-01", Name: "Aceite 10W40", Unit: "lt", Stock: dec("0.3"), IsActive: true})
	svc := NewService(repo, nil)
	ctx := context.Background()

	// three tenths drain to exactly zero, no binary float residue
	for i := 0; i < 3; i++ {
		_, err := svc.RegisterMovement(ctx, CreateMovementRequest{MaterialID: mat.ID, EmployeeID: 7, Type: MovementOut, Quantity: dec("0.1")}, 1)
		require.NoError(t, err)
	}

	got, err := repo.Get(ctx, mat.ID)
	require.NoError(t, err)
	require.True(t, got.Stock.IsZero(), "stock %s", got.Stock)

	_, err = svc.RegisterMovement(ctx, CreateMovementRequest{MaterialID: mat.ID, EmployeeID: 7, Type: MovementOut, Quantity: dec("0.1")}, 1)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestRegisterMovementInactiveMaterial(t *testing.T) {
	repo := newMemoryRepo()
	mat := repo.seed(Material{Code: "OBS-04", Name: "Pieza descontinuada", Unit: "un", Stock: dec("1"), IsActive: false})
	svc := NewService(repo, nil)

	_, err := svc.RegisterMovement(context.Background(), CreateMovementRequest{MaterialID: mat.ID, EmployeeID: 2, Type: MovementIn, Quantity: dec("1")}, 1)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestRegisterMovementUnknownType(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.RegisterMovement(context.Background(), CreateMovementRequest{MaterialID: 1, EmployeeID: 1, Type: "TRASPASO", Quantity: dec("1")}, 1)
	require.ErrorIs(t, err, httpx.ErrValidation)
}
