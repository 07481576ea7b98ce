// Package taper provides the Edgren & Nylinder stem taper model for pine and
// spruce under bark.
package taper
