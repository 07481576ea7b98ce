package store

import (
	"database/sql"
	"fmt"

	"github.com/jward/taper"
)

const treeColumns = "id, name, species, height_m, diameter_cm, form_factor, note, created_at"

// InsertTree saves t and sets its ID. Names are unique.
func (s *Store) InsertTree(t *Tree) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO trees (name, species, height_m, diameter_cm, form_factor, note, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		t.Name, t.Species.String(), t.HeightM, t.DiameterCM, t.FormFactor, t.Note, t.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert tree %q: %w", t.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	t.ID = id
	return id, nil
}

// TreeByName returns the named tree, or nil if there is none.
func (s *Store) TreeByName(name string) (*Tree, error) {
	row := s.db.QueryRow("SELECT "+treeColumns+" FROM trees WHERE name = ?", name)
	t, err := scanTree(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tree by name: %w", err)
	}
	return t, nil
}

// Trees returns all saved trees ordered by name.
func (s *Store) Trees() ([]*Tree, error) {
	rows, err := s.db.Query("SELECT " + treeColumns + " FROM trees ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("trees: %w", err)
	}
	defer rows.Close()
	var trees []*Tree
	for rows.Next() {
		t, err := scanTree(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tree: %w", err)
		}
		trees = append(trees, t)
	}
	return trees, rows.Err()
}

// TreesBySpecies returns the saved trees of one species ordered by name.
func (s *Store) TreesBySpecies(sp taper.Species) ([]*Tree, error) {
	rows, err := s.db.Query("SELECT "+treeColumns+" FROM trees WHERE species = ? ORDER BY name", sp.String())
	if err != nil {
		return nil, fmt.Errorf("trees by species: %w", err)
	}
	defer rows.Close()
	var trees []*Tree
	for rows.Next() {
		t, err := scanTree(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tree: %w", err)
		}
		trees = append(trees, t)
	}
	return trees, rows.Err()
}

// DeleteTree removes the named tree and its assortments. It reports whether
// a tree was removed.
func (s *Store) DeleteTree(name string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM trees WHERE name = ?", name)
	if err != nil {
		return false, fmt.Errorf("delete tree %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTree(sc scanner) (*Tree, error) {
	t := &Tree{}
	var species string
	var note sql.NullString
	var created sql.NullTime
	if err := sc.Scan(&t.ID, &t.Name, &species, &t.HeightM, &t.DiameterCM, &t.FormFactor, &note, &created); err != nil {
		return nil, err
	}
	sp, err := taper.ParseSpecies(species)
	if err != nil {
		return nil, fmt.Errorf("tree %q: %w", t.Name, err)
	}
	t.Species = sp
	t.Note = note.String
	t.CreatedAt = created.Time
	return t, nil
}
