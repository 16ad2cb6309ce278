package spaceships

import (
	_ "embed"
)

// Dataset is the sample fleet as a JSON array
//
//go:embed spaceships.json
var Dataset []byte

// Manifest declares the same signals as Definitions in HCL
//
//go:embed spaceships.hcl
var Manifest []byte

// DatasetName identifies the embedded fleet in snapshots
const DatasetName = "spaceships"
