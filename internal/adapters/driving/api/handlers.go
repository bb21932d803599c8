package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driving"
)

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidInput, err)
}

func ok(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, actionResponse{Success: true, Message: message})
}

// Providers

func (s *Server) handleListProviders(w http.ResponseWriter, _ *http.Request) {
	providers, err := s.providers.List()
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]providerJSON, 0, len(providers))
	for _, p := range providers {
		out = append(out, toProviderJSON(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSetProvider(w http.ResponseWriter, r *http.Request) {
	var req setProviderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	override := driving.ProviderOverride{Path: req.Path, Name: req.Name}
	if err := s.providers.SetEnabled(req.ID, req.Enabled, override); err != nil {
		writeError(w, err)
		return
	}
	if req.Enabled {
		ok(w, "Provider enabled")
		return
	}
	ok(w, "Provider disabled")
}

func (s *Server) handleAddProvider(w http.ResponseWriter, r *http.Request) {
	var req customProviderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := s.providers.AddCustom(req.ID, req.Name, req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProviderJSON(*p))
}

func (s *Server) handleRemoveProvider(w http.ResponseWriter, r *http.Request) {
	if err := s.providers.Remove(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	ok(w, "Provider removed")
}

func (s *Server) handleSelectProvider(w http.ResponseWriter, r *http.Request) {
	var req selectProviderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.providers.Select(req.ID); err != nil {
		writeError(w, err)
		return
	}
	ok(w, "Selected "+req.ID)
}

// Skills

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	skills, err := s.skills.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]skillJSON, 0, len(skills))
	for _, st := range skills {
		out = append(out, toSkillJSON(st))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	detail, err := s.skills.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSkillDetailJSON(detail))
}

func (s *Server) handleInstall(w http.ResponseWriter, r *http.Request) {
	results, err := s.skills.Install(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultsResponse("Installed", results))
}

func (s *Server) handleInstallTo(w http.ResponseWriter, r *http.Request) {
	if err := s.skills.InstallTo(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "provider")); err != nil {
		writeError(w, err)
		return
	}
	ok(w, "Installed")
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	results, err := s.skills.Update(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultsResponse("Updated", results))
}

func (s *Server) handleUninstall(w http.ResponseWriter, r *http.Request) {
	removed, err := s.skills.Uninstall(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		ok(w, "Not installed")
		return
	}
	ok(w, "Uninstalled")
}

func (s *Server) handleUninstallFrom(w http.ResponseWriter, r *http.Request) {
	removed, err := s.skills.UninstallFrom(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "provider"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		ok(w, "Not installed")
		return
	}
	ok(w, "Removed")
}

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	detail, err := s.skills.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	raw := make(map[string]json.RawMessage)
	if err := decodeBody(r, &raw); err != nil {
		writeError(w, err)
		return
	}
	values, err := decodeConfig(&detail.Skill, raw)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.skills.Configure(r.Context(), detail.Skill.ID, values); err != nil {
		writeError(w, err)
		return
	}
	ok(w, "Configured")
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	result, err := s.skills.Test(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, testResultJSON(result))
}

func (s *Server) handleClearAuth(w http.ResponseWriter, r *http.Request) {
	removed, err := s.skills.ClearCredentials(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		ok(w, "No credentials stored")
		return
	}
	ok(w, "Credentials removed")
}

func (s *Server) handleOAuth(w http.ResponseWriter, r *http.Request) {
	var req oauthRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.skills.Authorize(r.Context(), chi.URLParam(r, "id"), req.ClientID, req.ClientSecret); err != nil {
		writeError(w, err)
		return
	}
	ok(w, "OAuth authorization complete")
}

func (s *Server) handleItemOAuth(w http.ResponseWriter, r *http.Request) {
	raw := make(map[string]json.RawMessage)
	if err := decodeBody(r, &raw); err != nil {
		writeError(w, err)
		return
	}
	req, err := splitItemAuthBody(raw)
	if err != nil {
		writeError(w, err)
		return
	}
	req.Field = chi.URLParam(r, "field")
	req.Slug = chi.URLParam(r, "slug")

	if err := s.skills.AuthorizeItem(r.Context(), chi.URLParam(r, "id"), req); err != nil {
		writeError(w, err)
		return
	}
	ok(w, "OAuth authorization complete for "+domain.NormalizeSlug(req.Slug))
}

// Repository

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, fmt.Errorf("%w: limit must be a non-negative integer", domain.ErrInvalidInput))
			return
		}
		limit = n
	}
	events, err := s.skills.History(r.Context(), r.URL.Query().Get("skill"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]eventJSON, 0, len(events))
	for _, e := range events {
		out = append(out, toEventJSON(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCheckUpdates(w http.ResponseWriter, r *http.Request) {
	check, err := s.skills.CheckForUpdates(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updateCheckJSON(check))
}

func (s *Server) handleSelfUpdate(w http.ResponseWriter, r *http.Request) {
	msg, err := s.skills.SelfUpdate(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	ok(w, msg)
}
