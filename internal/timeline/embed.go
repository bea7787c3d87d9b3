package timeline

import _ "embed"

//go:embed data/catalog.yaml
var catalogYAML []byte

//go:embed data/categories.yaml
var categoriesYAML []byte
