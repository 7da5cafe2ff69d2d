package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/trading/backend/internal/domain/account"
	"github.com/trading/backend/internal/domain/shared"
	"github.com/trading/backend/internal/domain/shared/valueobject"
)

func TestUserRepositorySaveAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	user, err := account.NewUser("alice")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, user))

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, int64(1), byID.Version)

	byName, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	_, err = repo.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUserRepositoryDuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	first, err := account.NewUser("alice")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	second, err := account.NewUser("alice")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(ctx, second), shared.ErrAlreadyExists)
}

func TestUserRepositoryVersionedSave(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	user, err := account.NewUser("alice")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, user))

	money, err := valueobject.NewMoneyUSDFromString("10.00")
	require.NoError(t, err)

	// Two readers load the same version; only the first write lands
	winner, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	loser, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, winner.Credit(money))
	require.NoError(t, repo.SaveWithVersion(ctx, winner))

	require.NoError(t, loser.Credit(money))
	assert.ErrorIs(t, repo.SaveWithVersion(ctx, loser), shared.ErrConcurrencyConflict)

	fresh, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, fresh.Balance.Equal(decimal.RequireFromString("10.00")))
	assert.Equal(t, int64(2), fresh.Version)
}

// The compare-and-swap must reach the database as a single conditional
// UPDATE; anything else reintroduces the read-modify-write race.
func TestUserRepositoryVersionedSaveSQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	repo := NewGormUserRepository(db)

	user, err := account.NewUser("alice")
	require.NoError(t, err)
	money, err := valueobject.NewMoneyUSDFromString("10.00")
	require.NoError(t, err)
	require.NoError(t, user.Credit(money))

	// Anchored to the end of the statement: the id/version pair must be
	// the only predicate, with no extra primary-key clause appended.
	casUpdate := `UPDATE "users" SET .+ WHERE id = \$\d+ AND version = \$\d+$`

	mock.ExpectExec(casUpdate).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SaveWithVersion(context.Background(), user))

	mock.ExpectExec(casUpdate).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.SaveWithVersion(context.Background(), user), shared.ErrConcurrencyConflict)

	require.NoError(t, mock.ExpectationsWereMet())
}
