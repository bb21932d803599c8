// Package domain defines the core business entities of the skills installer.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Skill: files plus declared configuration fields and OAuth metadata
//   - Field: the closed union of ScalarField and ListField
//   - Provider: a host application skills are deployed into
//   - Status: the derived installation state of a skill for a provider
//   - EnvFile: the KEY="VALUE" credential artifact format
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
