package database

import (
	"context"
	"net/url"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-payroll-api/pkg/config"
)

func TestDSNEscapesCredentials(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "payroll",
		Password: "p@ss word",
		Name:     "campus_payroll",
	})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db.internal:5433", u.Host)
	assert.Equal(t, "/campus_payroll", u.Path)
	pass, _ := u.User.Password()
	assert.Equal(t, "p@ss word", pass)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, applicationName, u.Query().Get("application_name"))
}

func TestPing(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	db := sqlx.NewDb(raw, "sqlmock")
	defer db.Close()

	mock.ExpectPing()
	require.NoError(t, Ping(context.Background(), db))

	mock.ExpectPing().WillReturnError(assert.AnError)
	assert.ErrorIs(t, Ping(context.Background(), db), assert.AnError)
	require.NoError(t, mock.ExpectationsWereMet())
}
