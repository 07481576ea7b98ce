// Package taper implements the Edgren & Nylinder stem taper functions for
// Scots pine (Pinus sylvestris) and Norway spruce (Picea abies) in northern
// and southern Sweden.
//
// Given a tree's species, basal-area weighted mean height, diameter of mean
// basal area under bark and form factor, a [Calculator] predicts the stem
// diameter under bark at any height, or the height at which the stem narrows
// to a given diameter.
//
// # Model
//
// The stem is split into three regions, from the base up:
//
//  1. Root swell: from the ground to the root-swell share of total height.
//  2. Middle stem: from the end of the root swell to 60% of total height.
//  3. Top: from 60% of total height to the tip.
//
// Each region has its own logarithmic taper equation. The equations meet at
// the region boundaries, and the inverse equations are clamped to the
// region they were selected for.
//
// # Usage
//
//	c := taper.New(taper.SouthernPine, 20, 25, 0.5)
//	d := c.DiameterAtHeight(10)   // cm under bark at 10 m
//	h := c.HeightAtDiameter(12)   // m where the stem is 12 cm
//
// [New] never fails. Use [NewFromParams] to reject physically implausible
// inputs before any derived constants are computed.
//
// A Calculator is immutable after construction and safe for concurrent use.
package taper
