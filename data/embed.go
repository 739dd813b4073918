package data

import (
	_ "embed"
)

//go:embed seed/menu.json
var SeedMenuJSON []byte
