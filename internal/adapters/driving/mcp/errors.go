// Package mcp provides an MCP (Model Context Protocol) server adapter for the
// skill installer. It lets AI assistants list, inspect, install and remove skills.
package mcp

import "errors"

// ErrMissingSkillService is returned when the skill service is not provided.
var ErrMissingSkillService = errors.New("mcp: skill service is required")
