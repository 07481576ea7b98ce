package store

import (
	"database/sql"
	"fmt"
)

// ReplaceAssortments stores the logs cut from a tree, replacing any earlier
// result, within a single transaction. IDs and TreeID are set on each entry.
func (s *Store) ReplaceAssortments(treeID int64, logs []*Assortment) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("replace assortments: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM assortments WHERE tree_id = ?", treeID); err != nil {
		return fmt.Errorf("replace assortments: clear: %w", err)
	}
	for i, a := range logs {
		a.TreeID = treeID
		id, err := insertAssortmentTx(tx, a)
		if err != nil {
			return fmt.Errorf("replace assortments: log %d: %w", i, err)
		}
		a.ID = id
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace assortments: commit: %w", err)
	}
	return nil
}

func insertAssortmentTx(tx *sql.Tx, a *Assortment) (int64, error) {
	res, err := tx.Exec(
		"INSERT INTO assortments (tree_id, ordinal, kind, from_m, to_m, top_cm, volume_m3, script) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		a.TreeID, a.Ordinal, a.Kind, a.FromM, a.ToM, a.TopCM, a.VolumeM3, a.Script,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AssortmentsByTree returns a tree's logs in cutting order.
func (s *Store) AssortmentsByTree(treeID int64) ([]*Assortment, error) {
	rows, err := s.db.Query(
		"SELECT id, tree_id, ordinal, kind, from_m, to_m, top_cm, volume_m3, script FROM assortments WHERE tree_id = ? ORDER BY ordinal",
		treeID,
	)
	if err != nil {
		return nil, fmt.Errorf("assortments by tree: %w", err)
	}
	defer rows.Close()
	var logs []*Assortment
	for rows.Next() {
		a := &Assortment{}
		var script sql.NullString
		if err := rows.Scan(&a.ID, &a.TreeID, &a.Ordinal, &a.Kind, &a.FromM, &a.ToM, &a.TopCM, &a.VolumeM3, &script); err != nil {
			return nil, fmt.Errorf("scan assortment: %w", err)
		}
		a.Script = script.String
		logs = append(logs, a)
	}
	return logs, rows.Err()
}
