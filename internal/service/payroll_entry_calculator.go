package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/campus-payroll-api/internal/models"
)

var hundred = decimal.NewFromInt(100)

// computeEntry derives one employee's payroll entry and the ledger movement it implies.
// balance must be the ledger row before this month's weekend-work credit.
func computeEntry(
	employee models.Employee,
	tally models.AttendanceTally,
	balance models.LeaveBalance,
	lines []models.SalaryStructureLine,
	workingDays int,
) (*models.PayrollEntry, models.LeaveDelta, error) {
	if workingDays <= 0 {
		return nil, models.LeaveDelta{}, fmt.Errorf("zero working days")
	}
	totalDays := decimal.NewFromInt(int64(workingDays))

	present := tally.DaysPresent()
	absent := totalDays.Sub(present)
	earned := decimal.NewFromInt(int64(tally.WeekendWork))

	paid, comp, unpaid := leaveWaterfall(absent, balance.PaidAvailable(), balance.CompAvailable().Add(earned))
	lossOfPay := unpaid.Mul(employee.MonthlyGross).Div(totalDays).Round(2)

	gross := decimal.Zero
	deductions := decimal.Zero
	components := make([]models.PayrollEntryComponent, 0, len(lines))
	for _, line := range lines {
		component := line.Component()
		if !component.AppliesTo(employee.StaffType) {
			continue
		}
		amount, err := componentAmount(line, employee.MonthlyGross)
		if err != nil {
			return nil, models.LeaveDelta{}, err
		}
		switch component.Kind {
		case models.ComponentKindEarning:
			gross = gross.Add(amount)
		case models.ComponentKindDeduction:
			deductions = deductions.Add(amount)
		default:
			return nil, models.LeaveDelta{}, fmt.Errorf("salary component %s has unknown type %q", component.ID, component.Kind)
		}
		components = append(components, models.PayrollEntryComponent{
			ComponentID:   component.ID,
			ComponentName: component.Name,
			Kind:          component.Kind,
			Amount:        amount,
		})
	}
	deductions = deductions.Add(lossOfPay)

	entry := &models.PayrollEntry{
		EmployeeID:       employee.ID,
		DaysPresent:      present,
		DaysAbsent:       absent,
		PaidLeavesUsed:   paid,
		CompLeavesUsed:   comp,
		CompLeavesEarned: earned,
		UnpaidLeaves:     unpaid,
		LossOfPay:        lossOfPay,
		GrossEarnings:    gross,
		TotalDeductions:  deductions,
		NetPay:           gross.Sub(deductions),
		Components:       components,
	}
	return entry, models.LeaveDelta{PaidUsed: paid, CompEarned: earned, CompUsed: comp}, nil
}

// leaveWaterfall allocates absence to paid leave, then comp leave, then unpaid leave.
// Negative absence (more presence than working days) allocates nothing.
func leaveWaterfall(absent, paidAvailable, compAvailable decimal.Decimal) (paid, comp, unpaid decimal.Decimal) {
	remaining := absent
	paid, comp = decimal.Zero, decimal.Zero
	if remaining.IsPositive() && paidAvailable.IsPositive() {
		paid = decimal.Min(remaining, paidAvailable)
		remaining = remaining.Sub(paid)
	}
	if remaining.IsPositive() && compAvailable.IsPositive() {
		comp = decimal.Min(remaining, compAvailable)
		remaining = remaining.Sub(comp)
	}
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return paid, comp, remaining
}

func componentAmount(line models.SalaryStructureLine, monthlyGross decimal.Decimal) (decimal.Decimal, error) {
	switch line.Mode {
	case models.ComponentModePercentage:
		return monthlyGross.Mul(line.Amount).Div(hundred).Round(2), nil
	case models.ComponentModeFlat:
		return line.Amount.Round(2), nil
	default:
		return decimal.Zero, fmt.Errorf("salary component %s has unknown mode %q", line.ComponentID, line.Mode)
	}
}
