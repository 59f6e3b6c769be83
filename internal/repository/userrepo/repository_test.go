package userrepo_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomarket/internal/domain"
	apperror "gomarket/internal/errors"
	"gomarket/internal/pkg/listing"
	"gomarket/internal/pkg/logger"
	"gomarket/internal/repository/userrepo"
)

var userColumns = []string{"id", "email", "name", "password_hash", "role", "status", "last_login_at", "created_at", "updated_at"}

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) (*userrepo.UserRepository, sqlmock.Sqlmock) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sqlMock.MatchExpectationsInOrder(false)

	return userrepo.NewUserRepository(db, 2*time.Second, logger.NewLogger("debug")), sqlMock
}

func TestSave_DuplicateEmail(t *testing.T) {
	repo, sqlMock := newRepo(t)

	sqlMock.ExpectExec(`INSERT INTO users`).WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Save(context.Background(), domain.User{Email: "ana@exemplo.com", Role: domain.RoleCustomer, Status: domain.UserActive})
	assert.True(t, apperror.IsConflict(err))
}

func TestSave_AssignsID(t *testing.T) {
	repo, sqlMock := newRepo(t)

	sqlMock.ExpectExec(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "ana@exemplo.com", "Ana", "hash", "SELLER", "ACTIVE", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user, err := repo.Save(context.Background(), domain.User{
		Email: "ana@exemplo.com", Name: "Ana", PasswordHash: "hash", Role: domain.RoleSeller, Status: domain.UserActive,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestFindByEmail(t *testing.T) {
	repo, sqlMock := newRepo(t)

	sqlMock.ExpectQuery(`WHERE lower\(u.email\) = lower\(\$1\)`).
		WithArgs("ana@exemplo.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-1", "ana@exemplo.com", "Ana", "hash", "ADMIN", "ACTIVE", now, now, now))

	user, err := repo.FindByEmail(context.Background(), "ana@exemplo.com")

	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	require.NotNil(t, user.LastLoginAt)
	assert.Equal(t, now, *user.LastLoginAt)
}

func TestFindByID_NotFound(t *testing.T) {
	repo, sqlMock := newRepo(t)

	sqlMock.ExpectQuery(`WHERE u.id = \$1`).WithArgs("u-x").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "u-x")
	assert.True(t, apperror.IsNotFound(err))
}

// TestList_SearchGroup testa a busca por nome OU e-mail junto com o filtro de papel.
func TestList_SearchGroup(t *testing.T) {
	repo, sqlMock := newRepo(t)

	q := domain.ListingQuery{
		Page:      1,
		Limit:     10,
		Sort:      listing.UserSort.Default,
		Predicate: listing.UserFilter{Search: "ana"}.Predicate(),
	}

	sqlMock.ExpectQuery(`SELECT COUNT\(\*\) FROM users u WHERE \(u.name ILIKE \$1 OR u.email ILIKE \$2\)`).
		WithArgs("%ana%", "%ana%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	sqlMock.ExpectQuery(`FROM users u WHERE .* ORDER BY u.created_at DESC, u.id DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("%ana%", "%ana%", 10, 0).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-1", "ana@exemplo.com", "Ana", "hash", "CUSTOMER", "ACTIVE", nil, now, now))

	page, err := repo.List(context.Background(), q)

	require.NoError(t, err)
	assert.Equal(t, domain.Pagination{Page: 1, Limit: 10, Total: 1, TotalPages: 1}, page.Pagination)
	require.Len(t, page.Items, 1)
	assert.Nil(t, page.Items[0].LastLoginAt)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestDeactivateAdmin(t *testing.T) {
	lockSQL := `SELECT id FROM users WHERE role = \$1 AND status = \$2 FOR UPDATE`

	t.Run("Sucesso - restam outros admins", func(t *testing.T) {
		repo, sqlMock := newRepo(t)

		sqlMock.ExpectBegin()
		sqlMock.ExpectQuery(lockSQL).
			WithArgs("ADMIN", "ACTIVE").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("admin-1").AddRow("admin-2"))
		sqlMock.ExpectExec(`UPDATE users SET status = \$2`).
			WithArgs("admin-2", "SUSPENDED", now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		sqlMock.ExpectCommit()

		err := repo.DeactivateAdmin(context.Background(), "admin-2", domain.UserSuspended, now)

		require.NoError(t, err)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("Falha - último admin ativo", func(t *testing.T) {
		repo, sqlMock := newRepo(t)

		sqlMock.ExpectBegin()
		sqlMock.ExpectQuery(lockSQL).
			WithArgs("ADMIN", "ACTIVE").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("admin-2"))
		sqlMock.ExpectRollback()

		err := repo.DeactivateAdmin(context.Background(), "admin-2", domain.UserInactive, now)

		assert.IsType(t, &apperror.BusinessRuleError{}, err)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("Falha - desativado por outra transação", func(t *testing.T) {
		repo, sqlMock := newRepo(t)

		sqlMock.ExpectBegin()
		sqlMock.ExpectQuery(lockSQL).
			WithArgs("ADMIN", "ACTIVE").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("admin-1").AddRow("admin-3"))
		sqlMock.ExpectRollback()

		err := repo.DeactivateAdmin(context.Background(), "admin-2", domain.UserInactive, now)

		assert.True(t, apperror.IsConflict(err))
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})
}

func TestUpdateStatus_NotFound(t *testing.T) {
	repo, sqlMock := newRepo(t)

	sqlMock.ExpectExec(`UPDATE users SET status = \$2`).
		WithArgs("u-x", "INACTIVE", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "u-x", domain.UserInactive, now)
	assert.True(t, apperror.IsNotFound(err))
}

func TestResetToken_Lifecycle(t *testing.T) {
	repo, sqlMock := newRepo(t)

	sqlMock.ExpectQuery(`FROM password_reset_tokens WHERE token_hash = \$1`).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "used_at", "created_at"}).
			AddRow("t-1", "u-1", "abc", now.Add(time.Hour), nil, now))
	sqlMock.ExpectExec(`UPDATE password_reset_tokens SET used_at = \$2 WHERE id = \$1 AND used_at IS NULL`).
		WithArgs("t-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectExec(`UPDATE password_reset_tokens SET used_at`).
		WithArgs("t-1", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tok, err := repo.FindResetToken(context.Background(), "abc")
	require.NoError(t, err)
	assert.Nil(t, tok.UsedAt)
	assert.False(t, tok.Expired(now))

	ok, err := repo.MarkResetTokenUsed(context.Background(), "t-1", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkResetTokenUsed(context.Background(), "t-1", now)
	require.NoError(t, err)
	assert.False(t, ok)
}
