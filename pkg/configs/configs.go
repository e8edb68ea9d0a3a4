// Package configs provides embedded configuration templates
// for the `hostkit config` command.
package configs

import _ "embed"

//go:embed config.yml
var DefaultConfigBytes []byte

//go:embed config-minimal.yml
var MinimalConfigBytes []byte

//go:embed config-gate.yml
var GateConfigBytes []byte

// Types maps template names to their content.
var Types = map[string][]byte{
	"full":    DefaultConfigBytes,
	"minimal": MinimalConfigBytes,
	"gate":    GateConfigBytes,
}
