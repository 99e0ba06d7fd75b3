package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-payroll-api/internal/models"
)

// HolidayRepository reads campus holiday calendars.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository constructs a HolidayRepository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// ListBetween returns holidays of a campus within [from, to] inclusive.
func (r *HolidayRepository) ListBetween(ctx context.Context, campusID string, from, to time.Time) ([]models.Holiday, error) {
	const query = `SELECT id, campus_id, date, name, is_optional FROM holidays
WHERE campus_id = $1 AND date >= $2 AND date <= $3 ORDER BY date`
	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, campusID, from, to); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return holidays, nil
}
