package database

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
)

// UploadActivity aggregates photo uploads per calendar day, keyed by
// "YYYY-MM-DD". built with squirrel against the raw connection because
// the grouped date expression does not map onto the GORM models.
func UploadActivity(db *gorm.DB) (map[string]int, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	query := sq.Select(
		"date(created_at, 'unixepoch') AS day",
		"COUNT(id) AS uploads",
	).
		From("photos").
		GroupBy("day").
		OrderBy("day ASC")

	rows, err := query.RunWith(sqlDB).Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query upload activity: %w", err)
	}
	defer rows.Close()

	activity := make(map[string]int)
	for rows.Next() {
		var day string
		var uploads int
		if err := rows.Scan(&day, &uploads); err != nil {
			return nil, fmt.Errorf("failed to scan upload activity row: %w", err)
		}
		activity[day] = uploads
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating upload activity rows: %w", err)
	}
	return activity, nil
}
