package main

import "github.com/jward/taper"

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIDiameter is the answer of the diameter command.
type CLIDiameter struct {
	HeightM    float64 `json:"height_m"`
	DiameterCM float64 `json:"diameter_cm"`
	Region     string  `json:"region"`
}

// CLIHeight is the answer of the height command.
type CLIHeight struct {
	DiameterCM float64 `json:"diameter_cm"`
	HeightM    float64 `json:"height_m"`
	Region     string  `json:"region"`
}

// CLIVolume is a stem section volume under bark.
type CLIVolume struct {
	FromM    float64 `json:"from_m"`
	ToM      float64 `json:"to_m"`
	VolumeM3 float64 `json:"volume_m3"`
}

// CLIProfile is a sampled stem profile.
type CLIProfile struct {
	StepM  float64              `json:"step_m"`
	Points []taper.ProfilePoint `json:"points"`
}

// CLITree is a JSON-friendly saved tree.
type CLITree struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Species     string          `json:"species"`
	HeightM     float64         `json:"height_m"`
	DiameterCM  float64         `json:"diameter_cm"`
	FormFactor  float64         `json:"form_factor"`
	Note        string          `json:"note,omitempty"`
	CreatedAt   string          `json:"created_at,omitempty"`
	Assortments []CLIAssortment `json:"assortments,omitempty"`
}

// CLIAssortment is one log of a bucking result.
type CLIAssortment struct {
	Ordinal  int     `json:"ordinal"`
	Kind     string  `json:"kind"`
	FromM    float64 `json:"from_m"`
	ToM      float64 `json:"to_m"`
	TopCM    float64 `json:"top_cm"`
	VolumeM3 float64 `json:"volume_m3"`
}

// CLIBuck is the result of running a bucking script.
type CLIBuck struct {
	Tree          string          `json:"tree,omitempty"`
	Script        string          `json:"script"`
	Logs          []CLIAssortment `json:"logs"`
	TotalVolumeM3 float64         `json:"total_volume_m3"`
	StemVolumeM3  float64         `json:"stem_volume_m3"`
	Saved         bool            `json:"saved"`
	Error         string          `json:"error,omitempty"`
}

// CLIConfig is the effective configuration and the file it maps to.
type CLIConfig struct {
	Path         string  `json:"path"`
	DatabasePath string  `json:"database_path"`
	Format       string  `json:"format"`
	LogLevel     string  `json:"log_level"`
	ScriptsDir   string  `json:"scripts_dir,omitempty"`
	ProfileStepM float64 `json:"profile_step_m"`
}
