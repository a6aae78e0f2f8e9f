package swagger

import "embed"

//go:generate curl -sSfL -o static/redoc.standalone.js https://cdn.redoc.ly/redoc/v2.1.5/bundles/redoc.standalone.js

// OpenAPI holds the embedded OpenAPI document.
//
//go:embed openapi.yaml
var OpenAPI []byte

// assets holds the vendored ReDoc bundle written by go generate.
//
//go:embed static
var assets embed.FS

const redocAsset = "static/redoc.standalone.js"
