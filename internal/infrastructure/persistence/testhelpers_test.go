package persistence

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/merchpulse/backend/internal/domain/attendance"
	"github.com/merchpulse/backend/internal/domain/identity"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var day = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

// setupTestDB opens an in-memory SQLite database with the attendance schema.
// A single connection keeps every query on the same in-memory database.
func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabaseFromDialector(sqlite.Open(":memory:"), nil)
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate())
	return db
}

// newMockDatabase creates a Database instance with a mocked SQL connection
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock, mockDB
}

func newTestEmployee(t *testing.T, name, username string, role identity.Role) *identity.Employee {
	t.Helper()
	e, err := identity.NewEmployee(name, username, "1234", role, day.Add(-30*24*time.Hour))
	require.NoError(t, err)
	return e
}

func newTestPunch(t *testing.T, employee *identity.Employee, at time.Time, typ attendance.PunchType) *attendance.TimePunch {
	t.Helper()
	p, err := attendance.NewTimePunch(employee.ID, at, typ, employee.ID, at)
	require.NoError(t, err)
	return p
}
