package store

import (
	"time"

	"github.com/jward/taper"
)

// Tree is a saved mean-tree record.
type Tree struct {
	ID         int64
	Name       string
	Species    taper.Species
	HeightM    float64
	DiameterCM float64
	FormFactor float64
	Note       string
	CreatedAt  time.Time
}

// Params returns the taper model inputs of t.
func (t *Tree) Params() taper.Params {
	return taper.Params{
		Species:             t.Species,
		HeightM:             t.HeightM,
		DiameterUnderBarkCM: t.DiameterCM,
		FormFactor:          t.FormFactor,
	}
}

// Assortment is one log cut from a tree by a bucking script.
type Assortment struct {
	ID       int64
	TreeID   int64
	Ordinal  int
	Kind     string
	FromM    float64
	ToM      float64
	TopCM    float64
	VolumeM3 float64
	Script   string
}
