package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// ChildTable names a table of dependent string values keyed by parent id.
type ChildTable struct {
	Table  string
	Key    string
	Column string
}

var (
	CompanyDomains       = ChildTable{Table: "company_domains", Key: "company_id", Column: "domain"}
	InfluencerSubjects   = ChildTable{Table: "influencer_subjects", Key: "influencer_id", Column: "subject"}
	AnnouncementSubjects = ChildTable{Table: "announcement_subjects", Key: "announcement_id", Column: "subject"}
)

type childRow struct {
	ParentID uint
	Value    string
}

// LoadChildren returns the child values of every given parent in insertion
// order. Every requested id is present in the result, with an empty slice
// when it has no children.
func LoadChildren(ctx context.Context, db *gorm.DB, ct ChildTable, ids []uint) (map[uint][]string, error) {
	result := make(map[uint][]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	for _, id := range ids {
		result[id] = []string{}
	}

	var rows []childRow
	err := db.WithContext(ctx).
		Table(ct.Table).
		Select(fmt.Sprintf("%s AS parent_id, %s AS value", ct.Key, ct.Column)).
		Where(ct.Key+" IN ?", ids).
		Order("id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", ct.Table, err)
	}

	for _, row := range rows {
		result[row.ParentID] = append(result[row.ParentID], row.Value)
	}
	return result, nil
}

// DeleteChildren removes every child row of the given parents.
func DeleteChildren(tx *gorm.DB, ct ChildTable, ids ...uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s IN ?", ct.Table, ct.Key), ids).Error; err != nil {
		return fmt.Errorf("failed to delete %s: %w", ct.Table, err)
	}
	return nil
}
