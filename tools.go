//go:build tools
// +build tools

// Package tools registra dependências de ferramentas (mockgen via go generate)
// para que fiquem versionadas no go.mod.
package tools

import (
	_ "go.uber.org/mock/mockgen"
)
