package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
)

// ListSkillsInput is the input schema for the list_skills tool.
type ListSkillsInput struct {
	Status string `json:"status,omitempty" jsonschema:"only return skills in this state: not_installed, outdated, installed or configured"`
}

// ListSkillsOutput is the output schema for the list_skills tool.
type ListSkillsOutput struct {
	Skills []SkillOutput `json:"skills"`
	Count  int           `json:"count"`
}

// SkillOutput summarises one skill.
type SkillOutput struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	Status         string            `json:"status"`
	ProviderStatus map[string]string `json:"provider_status,omitempty"`
	NeedsConfig    bool              `json:"needs_config"`
	HasOAuth       bool              `json:"has_oauth"`
}

// SkillInput identifies a skill, optionally scoped to one provider.
type SkillInput struct {
	Skill    string `json:"skill" jsonschema:"the skill id"`
	Provider string `json:"provider,omitempty" jsonschema:"limit the operation to this provider id"`
}

// SkillStatusOutput is the output schema for the skill_status tool.
type SkillStatusOutput struct {
	SkillOutput
	Dependencies []DependencyOutput `json:"dependencies,omitempty"`
}

// DependencyOutput reports one declared dependency.
type DependencyOutput struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// ActionOutput is the output schema for install_skill and uninstall_skill.
type ActionOutput struct {
	Skill   string               `json:"skill"`
	Changed bool                 `json:"changed"`
	Results []DeployResultOutput `json:"results,omitempty"`
}

// DeployResultOutput reports one provider's deployment.
type DeployResultOutput struct {
	Provider string `json:"provider"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

var errSkillRequired = errors.New("skill is required")

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_skills",
		Description: "List available skills with their installation status",
	}, s.handleListSkills)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "skill_status",
		Description: "Show one skill's status per provider and its dependency availability",
	}, s.handleSkillStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "install_skill",
		Description: "Install or update a skill in every enabled provider, or in one provider",
	}, s.handleInstallSkill)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "uninstall_skill",
		Description: "Remove a skill from every enabled provider, or from one provider",
	}, s.handleUninstallSkill)
}

func toSkillOutput(st domain.SkillStatus) SkillOutput {
	out := SkillOutput{
		ID:          st.Skill.ID,
		Name:        st.Skill.Name,
		Description: st.Skill.Description,
		Status:      string(st.Status),
		NeedsConfig: st.Skill.NeedsConfig(),
		HasOAuth:    st.Skill.OAuth != nil,
	}
	if len(st.ProviderStatus) > 0 {
		out.ProviderStatus = make(map[string]string, len(st.ProviderStatus))
		for id, status := range st.ProviderStatus {
			out.ProviderStatus[id] = string(status)
		}
	}
	return out
}

// handleListSkills handles the list_skills tool invocation.
func (s *Server) handleListSkills(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListSkillsInput,
) (*mcp.CallToolResult, ListSkillsOutput, error) {
	skills, err := s.ports.Skills.List(ctx)
	if err != nil {
		return nil, ListSkillsOutput{}, err
	}

	output := ListSkillsOutput{Skills: make([]SkillOutput, 0, len(skills))}
	for _, st := range skills {
		if input.Status != "" && string(st.Status) != input.Status {
			continue
		}
		output.Skills = append(output.Skills, toSkillOutput(st))
	}
	output.Count = len(output.Skills)

	return nil, output, nil
}

// handleSkillStatus handles the skill_status tool invocation.
func (s *Server) handleSkillStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SkillInput,
) (*mcp.CallToolResult, SkillStatusOutput, error) {
	if input.Skill == "" {
		return nil, SkillStatusOutput{}, errSkillRequired
	}
	detail, err := s.ports.Skills.Get(ctx, input.Skill)
	if err != nil {
		return nil, SkillStatusOutput{}, err
	}

	output := SkillStatusOutput{SkillOutput: toSkillOutput(detail.SkillStatus)}
	for _, dep := range detail.Dependencies {
		output.Dependencies = append(output.Dependencies, DependencyOutput{Name: dep.Name, Available: dep.Available})
	}
	return nil, output, nil
}

// handleInstallSkill handles the install_skill tool invocation.
func (s *Server) handleInstallSkill(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SkillInput,
) (*mcp.CallToolResult, ActionOutput, error) {
	if input.Skill == "" {
		return nil, ActionOutput{}, errSkillRequired
	}

	output := ActionOutput{Skill: input.Skill}
	if input.Provider != "" {
		if err := s.ports.Skills.InstallTo(ctx, input.Skill, input.Provider); err != nil {
			return nil, ActionOutput{}, err
		}
		output.Changed = true
		output.Results = []DeployResultOutput{{Provider: input.Provider, Success: true}}
		return nil, output, nil
	}

	results, err := s.ports.Skills.Install(ctx, input.Skill)
	if err != nil {
		return nil, ActionOutput{}, err
	}
	for _, r := range results {
		output.Results = append(output.Results, DeployResultOutput(r))
		output.Changed = output.Changed || r.Success
	}
	return nil, output, nil
}

// handleUninstallSkill handles the uninstall_skill tool invocation.
func (s *Server) handleUninstallSkill(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SkillInput,
) (*mcp.CallToolResult, ActionOutput, error) {
	if input.Skill == "" {
		return nil, ActionOutput{}, errSkillRequired
	}

	var (
		removed bool
		err     error
	)
	if input.Provider != "" {
		removed, err = s.ports.Skills.UninstallFrom(ctx, input.Skill, input.Provider)
	} else {
		removed, err = s.ports.Skills.Uninstall(ctx, input.Skill)
	}
	if err != nil {
		return nil, ActionOutput{}, err
	}
	return nil, ActionOutput{Skill: input.Skill, Changed: removed}, nil
}
