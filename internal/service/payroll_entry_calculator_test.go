package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-payroll-api/internal/models"
)

func structureLine(id, name string, kind models.ComponentKind, mode models.ComponentMode, amount, applicability string) models.SalaryStructureLine {
	return models.SalaryStructureLine{
		EmployeeSalaryStructure: models.EmployeeSalaryStructure{ComponentID: id, Amount: dec(amount)},
		ComponentName:           name,
		Kind:                    kind,
		Mode:                    mode,
		Applicability:           applicability,
	}
}

func teachingEmployee() models.Employee {
	return models.Employee{ID: "emp-1", Code: "E001", StaffType: models.StaffTypeTeaching, MonthlyGross: dec("44000")}
}

func TestComputeEntryPaidLeaveThenUnpaid(t *testing.T) {
	lines := []models.SalaryStructureLine{
		structureLine("basic", "Basic", models.ComponentKindEarning, models.ComponentModeFlat, "30000", models.ApplicabilityAll),
		structureLine("hra", "HRA", models.ComponentKindEarning, models.ComponentModePercentage, "10", models.ApplicabilityAll),
		structureLine("pf", "Provident Fund", models.ComponentKindDeduction, models.ComponentModeFlat, "1800", models.ApplicabilityAll),
	}
	balance := models.LeaveBalance{PaidLeavesTotal: dec("3")}

	entry, delta, err := computeEntry(teachingEmployee(), models.AttendanceTally{Present: 17, Absent: 5}, balance, lines, 22)
	require.NoError(t, err)

	requireDecimal(t, "17", entry.DaysPresent)
	requireDecimal(t, "5", entry.DaysAbsent)
	requireDecimal(t, "3", entry.PaidLeavesUsed)
	requireDecimal(t, "0", entry.CompLeavesUsed)
	requireDecimal(t, "2", entry.UnpaidLeaves)
	requireDecimal(t, "4000", entry.LossOfPay)
	requireDecimal(t, "34400", entry.GrossEarnings)
	requireDecimal(t, "5800", entry.TotalDeductions)
	requireDecimal(t, "28600", entry.NetPay)
	require.Len(t, entry.Components, 3)
	requireDecimal(t, "4400", entry.Components[1].Amount)

	requireDecimal(t, "3", delta.PaidUsed)
	requireDecimal(t, "0", delta.CompUsed)
	requireDecimal(t, "0", delta.CompEarned)
}

func TestComputeEntryWeekendWorkFundsCompLeave(t *testing.T) {
	balance := models.LeaveBalance{PaidLeavesTotal: dec("12"), PaidLeavesUsed: dec("11")}
	tally := models.AttendanceTally{Present: 17, WeekendWork: 2, Absent: 5}

	entry, delta, err := computeEntry(teachingEmployee(), tally, balance, nil, 22)
	require.NoError(t, err)

	requireDecimal(t, "19", entry.DaysPresent)
	requireDecimal(t, "3", entry.DaysAbsent)
	requireDecimal(t, "1", entry.PaidLeavesUsed)
	requireDecimal(t, "2", entry.CompLeavesUsed)
	requireDecimal(t, "2", entry.CompLeavesEarned)
	requireDecimal(t, "0", entry.UnpaidLeaves)
	requireDecimal(t, "0", entry.LossOfPay)
	requireDecimal(t, "2", delta.CompEarned)
	requireDecimal(t, "2", delta.CompUsed)
}

func TestComputeEntryHalfDaysAndCarryForward(t *testing.T) {
	balance := models.LeaveBalance{PaidLeavesTotal: dec("0"), CarryForwardLeaves: dec("0.5")}
	tally := models.AttendanceTally{Present: 20, HalfDays: 2}

	entry, _, err := computeEntry(teachingEmployee(), tally, balance, nil, 22)
	require.NoError(t, err)

	requireDecimal(t, "21", entry.DaysPresent)
	requireDecimal(t, "1", entry.DaysAbsent)
	requireDecimal(t, "0.5", entry.PaidLeavesUsed)
	requireDecimal(t, "0.5", entry.UnpaidLeaves)
	requireDecimal(t, "1000", entry.LossOfPay)
	requireDecimal(t, "-1000", entry.NetPay)
}

func TestComputeEntryOverPresenceClampsUnpaid(t *testing.T) {
	entry, delta, err := computeEntry(teachingEmployee(), models.AttendanceTally{Present: 21, WeekendWork: 3}, models.LeaveBalance{}, nil, 22)
	require.NoError(t, err)

	requireDecimal(t, "-2", entry.DaysAbsent)
	requireDecimal(t, "0", entry.PaidLeavesUsed)
	requireDecimal(t, "0", entry.CompLeavesUsed)
	requireDecimal(t, "0", entry.UnpaidLeaves)
	requireDecimal(t, "3", delta.CompEarned)
	assert.True(t, entry.DaysPresent.Add(entry.DaysAbsent).Equal(dec("22")))
}

func TestComputeEntrySkipsComponentsForOtherStaffTypes(t *testing.T) {
	employee := teachingEmployee()
	employee.StaffType = models.StaffTypeNonTeaching
	lines := []models.SalaryStructureLine{
		structureLine("basic", "Basic", models.ComponentKindEarning, models.ComponentModeFlat, "20000", models.ApplicabilityAll),
		structureLine("academic", "Academic Allowance", models.ComponentKindEarning, models.ComponentModeFlat, "5000", string(models.StaffTypeTeaching)),
	}

	entry, _, err := computeEntry(employee, models.AttendanceTally{Present: 22}, models.LeaveBalance{}, lines, 22)
	require.NoError(t, err)
	requireDecimal(t, "20000", entry.GrossEarnings)
	require.Len(t, entry.Components, 1)
	assert.Equal(t, "basic", entry.Components[0].ComponentID)
}

func TestComputeEntryRoundsLossOfPay(t *testing.T) {
	employee := teachingEmployee()
	employee.MonthlyGross = dec("10000")
	lines := []models.SalaryStructureLine{
		structureLine("basic", "Basic", models.ComponentKindEarning, models.ComponentModeFlat, "10000", models.ApplicabilityAll),
	}

	entry, _, err := computeEntry(employee, models.AttendanceTally{Present: 19}, models.LeaveBalance{}, lines, 21)
	require.NoError(t, err)
	requireDecimal(t, "952.38", entry.LossOfPay)
	assert.True(t, entry.NetPay.Equal(entry.GrossEarnings.Sub(entry.TotalDeductions)))
}

func TestComputeEntryRejectsUnknownComponentKind(t *testing.T) {
	lines := []models.SalaryStructureLine{
		structureLine("bonus", "Bonus", models.ComponentKind("BONUS"), models.ComponentModeFlat, "100", models.ApplicabilityAll),
	}
	_, _, err := computeEntry(teachingEmployee(), models.AttendanceTally{Present: 22}, models.LeaveBalance{}, lines, 22)
	require.Error(t, err)
}

func TestComputeEntryRejectsUnknownComponentMode(t *testing.T) {
	lines := []models.SalaryStructureLine{
		structureLine("basic", "Basic", models.ComponentKindEarning, models.ComponentModeFlat, "20000", models.ApplicabilityAll),
		structureLine("bonus", "Bonus", models.ComponentKindEarning, models.ComponentMode("TIERED"), "100", models.ApplicabilityAll),
	}
	_, _, err := computeEntry(teachingEmployee(), models.AttendanceTally{Present: 22}, models.LeaveBalance{}, lines, 22)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TIERED")
}

func TestComputeEntryRejectsZeroWorkingDays(t *testing.T) {
	_, _, err := computeEntry(teachingEmployee(), models.AttendanceTally{}, models.LeaveBalance{}, nil, 0)
	require.Error(t, err)
}

func TestLeaveWaterfallOrder(t *testing.T) {
	paid, comp, unpaid := leaveWaterfall(dec("4"), dec("1.5"), dec("1"))
	requireDecimal(t, "1.5", paid)
	requireDecimal(t, "1", comp)
	requireDecimal(t, "1.5", unpaid)

	paid, comp, unpaid = leaveWaterfall(dec("2"), dec("-1"), dec("0"))
	requireDecimal(t, "0", paid)
	requireDecimal(t, "0", comp)
	requireDecimal(t, "2", unpaid)
}
