package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sellerhub/internal/model"
)

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "store_type", "role", "status", "created_at", "updated_at"})
}

func TestUserRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (email, password_hash, full_name, store_type, role, status) VALUES (?,?,?,?,?,?)")).
		WithArgs("a@x.com", "hash", "Ann", "grocery", "USER", "PENDING").
		WillReturnResult(sqlmock.NewResult(42, 1))

	u := &model.User{Email: "  A@X.com ", PasswordHash: "hash", FullName: "Ann", StoreType: "grocery", Role: model.RoleUser, Status: model.StatusPending}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, uint64(42), u.ID)
	assert.Equal(t, "a@x.com", u.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err = repo.Create(context.Background(), &model.User{Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE email=? LIMIT 1")).
		WithArgs("a@x.com").
		WillReturnRows(userRows().AddRow(7, "a@x.com", "hash", "Ann", "grocery", "ADMIN", "ACTIVE", now, now))

	u, err := repo.GetByEmail(context.Background(), "A@x.com")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, model.RoleAdmin, u.Role)
	assert.Equal(t, model.StatusActive, u.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectQuery("FROM users WHERE id=").
		WithArgs(uint64(9)).
		WillReturnRows(userRows())

	_, err = repo.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_ExistsByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectQuery("SELECT 1 FROM users").WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM users").WithArgs("b@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery("SELECT 1 FROM users").WithArgs("c@x.com").
		WillReturnError(errors.New("conn reset"))

	ok, err := repo.ExistsByEmail(context.Background(), "A@X.COM")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ExistsByEmail(context.Background(), "b@x.com")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.ExistsByEmail(context.Background(), "c@x.com")
	assert.Error(t, err)
}

func TestUserRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM users ORDER BY id").
		WillReturnRows(userRows().
			AddRow(1, "a@x.com", "h", "A", "", "USER", "PENDING", now, now).
			AddRow(2, "b@x.com", "h", "B", "", "ADMIN", "ACTIVE", now, now))

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "b@x.com", users[1].Email)
}

func TestUserRepo_Updates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash=? WHERE id=?")).
		WithArgs("newhash", uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET status=? WHERE id=?")).
		WithArgs("ACTIVE", uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdatePassword(context.Background(), 3, "newhash"))
	require.NoError(t, repo.UpdateStatus(context.Background(), 3, model.StatusActive))
	require.NoError(t, mock.ExpectationsWereMet())
}
