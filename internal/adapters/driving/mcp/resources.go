package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for installer resources.
	uriScheme = "agent-skills://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing providers.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "providers",
		Name:        "providers",
		Description: "Configured installation targets and their enabled state",
		MIMEType:    "application/json",
	}, s.handleProvidersResource)

	// Template for one skill's status.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "skills/{skillId}",
		Name:        "skill-status",
		Description: "Installation status of a specific skill",
		MIMEType:    "application/json",
	}, s.handleSkillResource)
}

// handleProvidersResource returns every known provider.
func (s *Server) handleProvidersResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Providers == nil {
		return jsonResource(req.Params.URI, "[]"), nil
	}

	providers, err := s.ports.Providers.List()
	if err != nil {
		return nil, fmt.Errorf("listing providers: %w", err)
	}

	type providerInfo struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Path     string `json:"path"`
		Enabled  bool   `json:"enabled"`
		Selected bool   `json:"selected"`
	}

	infos := make([]providerInfo, len(providers))
	for i, p := range providers {
		infos[i] = providerInfo{
			ID:       p.ID,
			Name:     p.Name,
			Path:     p.Path,
			Enabled:  p.Enabled,
			Selected: p.Selected,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling providers: %w", err)
	}
	return jsonResource(req.Params.URI, string(data)), nil
}

// handleSkillResource returns the status of one skill.
func (s *Server) handleSkillResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract skillId from URI: agent-skills://skills/{skillId}
	skillID := extractSkillID(req.Params.URI)
	if skillID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	detail, err := s.ports.Skills.Get(ctx, skillID)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	data, err := json.MarshalIndent(toSkillOutput(detail.SkillStatus), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling skill: %w", err)
	}
	return jsonResource(req.Params.URI, string(data)), nil
}

func jsonResource(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}

// extractSkillID extracts the skill ID from a URI like agent-skills://skills/{skillId}.
func extractSkillID(uri string) string {
	const prefix = uriScheme + "skills/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
