package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-payroll-api/internal/models"
)

func TestSalaryStructureRepositoryListEffective(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewSalaryStructureRepository(db)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "employee_id", "salary_component_id", "amount", "effective_from", "effective_to", "created_at",
		"component_name", "component_type", "applicability", "mode"}).
		AddRow("ss-1", "emp-1", "basic", "40000.00", from.AddDate(-1, 0, 0), nil, now, "Basic", "EARNING", "ALL", "FLAT").
		AddRow("ss-2", "emp-1", "pf", "12.00", from.AddDate(-1, 0, 0), nil, now, "Provident Fund", "DEDUCTION", "TEACHING", "PERCENTAGE")
	mock.ExpectQuery(regexp.QuoteMeta("s.effective_from <= $2 AND (s.effective_to IS NULL OR s.effective_to >= $3)")).
		WithArgs("emp-1", to, from).
		WillReturnRows(rows)

	lines, err := repo.ListEffective(context.Background(), nil, "emp-1", from, to)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Basic", lines[0].ComponentName)
	assert.True(t, lines[0].Amount.Equal(decimal.NewFromInt(40000)))
	assert.Equal(t, models.ComponentModePercentage, lines[1].Mode)
	assert.False(t, lines[1].Component().AppliesTo(models.StaffTypeSubStaff))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSalaryStructureRepositoryCreate(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewSalaryStructureRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO employee_salary_structures")).WillReturnResult(sqlmock.NewResult(1, 1))

	row := &models.EmployeeSalaryStructure{EmployeeID: "emp-1", ComponentID: "basic", Amount: decimal.NewFromInt(100), EffectiveFrom: time.Now()}
	require.NoError(t, repo.Create(context.Background(), nil, row))
	assert.NotEmpty(t, row.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryResolveActiveCodesWithEmptyFollowup(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewEmployeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("employee_code = ANY($2)")).
		WithArgs("campus-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"employee_code", "id"}).AddRow("E001", "emp-1"))

	resolved, err := repo.ResolveActiveCodes(context.Background(), "campus-1", []string{"E001", "E999"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"E001": "emp-1"}, resolved)
	require.NoError(t, mock.ExpectationsWereMet())

	empty, err := repo.ResolveActiveCodes(context.Background(), "campus-1", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLockRepositoryWithoutClientAlwaysGrantsShortKey(t *testing.T) {
	repo := NewLockRepository(nil)
	token, ok, err := repo.Acquire(context.Background(), "payroll:lock:x", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, token)
	require.NoError(t, repo.Release(context.Background(), "payroll:lock:x", token))
}
