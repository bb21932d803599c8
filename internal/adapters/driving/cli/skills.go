package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driving"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Manage skills",
	Long:  `List, install, update, configure, test and remove skills.`,
}

var skillsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List skills with their status",
	Args:  cobra.NoArgs,
	RunE:  runSkillsList,
}

var skillsShowCmd = &cobra.Command{
	Use:   "show [skill-id]",
	Short: "Show a skill's status, configuration and dependencies",
	Args:  cobra.ExactArgs(1),
	RunE:  runSkillsShow,
}

var skillsInstallCmd = &cobra.Command{
	Use:   "install [skill-id]",
	Short: "Install a skill",
	Long: `Deploys the skill to every enabled provider, or to one provider with
--provider. Stored credentials are copied alongside the skill files.`,
	Args: cobra.ExactArgs(1),
	RunE: runSkillsInstall,
}

var skillsUpdateCmd = &cobra.Command{
	Use:   "update [skill-id]",
	Short: "Redeploy a skill to every enabled provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runSkillsUpdate,
}

var skillsUninstallCmd = &cobra.Command{
	Use:   "uninstall [skill-id]",
	Short: "Remove a skill",
	Long:  `Removes the skill from every enabled provider, or from one provider with --provider.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSkillsUninstall,
}

var skillsConfigureCmd = &cobra.Command{
	Use:   "configure [skill-id]",
	Short: "Configure a skill",
	Long: `Updates the skill's configuration and syncs it to every installed copy.

Without flags, each scalar field is prompted for; secrets are read without echo.

Examples:
  agent-skills skills configure sentry --set api_key=abc123
  agent-skills skills configure sentry --item orgs/acme/token=t0k --default orgs=acme
  agent-skills skills configure sentry --remove-item orgs/old-org`,
	Args: cobra.ExactArgs(1),
	RunE: runSkillsConfigure,
}

var skillsTestCmd = &cobra.Command{
	Use:   "test [skill-id]",
	Short: "Run a skill's self-test",
	Args:  cobra.ExactArgs(1),
	RunE:  runSkillsTest,
}

var skillsClearAuthCmd = &cobra.Command{
	Use:   "clear-auth [skill-id]",
	Short: "Remove a skill's stored credentials",
	Long:  `Removes the central credential file and every provider copy.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSkillsClearAuth,
}

var skillsAuthCmd = &cobra.Command{
	Use:   "auth [skill-id]",
	Short: "Authorize a skill with OAuth",
	Long: `Runs the browser-based OAuth authorization for the skill, or for one
account of a list field with --item field/slug. The callback listens on a
fixed local port, so only one authorization can run at a time.

The client id and secret default to the values stored in the skill's
configuration. A missing secret is prompted for.`,
	Args: cobra.ExactArgs(1),
	RunE: runSkillsAuth,
}

var (
	skillsJSON     bool
	targetProvider string

	configSets    []string
	configItems   []string
	configRemoves []string
	configDefault []string

	authClientID     string
	authClientSecret string
	authItem         string
	authAttrs        []string
)

func init() {
	skillsListCmd.Flags().BoolVar(&skillsJSON, "json", false, "output as JSON")

	skillsInstallCmd.Flags().StringVarP(&targetProvider, "provider", "p", "", "install to this provider only")
	skillsUninstallCmd.Flags().StringVarP(&targetProvider, "provider", "p", "", "uninstall from this provider only")

	skillsConfigureCmd.Flags().StringArrayVar(&configSets, "set", nil, "set a scalar field (name=value)")
	skillsConfigureCmd.Flags().StringArrayVar(&configItems, "item", nil, "set a list item attribute (field/slug/attribute=value)")
	skillsConfigureCmd.Flags().StringArrayVar(&configRemoves, "remove-item", nil, "remove a list item (field/slug)")
	skillsConfigureCmd.Flags().StringArrayVar(&configDefault, "default", nil, "set a list field's default item (field=slug)")

	skillsAuthCmd.Flags().StringVar(&authClientID, "client-id", "", "OAuth client id")
	skillsAuthCmd.Flags().StringVar(&authClientSecret, "client-secret", "", "OAuth client secret")
	skillsAuthCmd.Flags().StringVar(&authItem, "item", "", "authorize one list item (field/slug)")
	skillsAuthCmd.Flags().StringArrayVar(&authAttrs, "attr", nil, "item attribute to store with the tokens (name=value)")

	skillsCmd.AddCommand(skillsListCmd)
	skillsCmd.AddCommand(skillsShowCmd)
	skillsCmd.AddCommand(skillsInstallCmd)
	skillsCmd.AddCommand(skillsUpdateCmd)
	skillsCmd.AddCommand(skillsUninstallCmd)
	skillsCmd.AddCommand(skillsConfigureCmd)
	skillsCmd.AddCommand(skillsTestCmd)
	skillsCmd.AddCommand(skillsClearAuthCmd)
	skillsCmd.AddCommand(skillsAuthCmd)
	rootCmd.AddCommand(skillsCmd)
}

func runSkillsList(cmd *cobra.Command, _ []string) error {
	if err := requireSkills(); err != nil {
		return err
	}

	skills, err := skillService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list skills: %w", err)
	}

	if skillsJSON {
		return outputSkillsJSON(cmd, skills)
	}

	if len(skills) == 0 {
		cmd.Println("No skills found.")
		return nil
	}

	cmd.Println(titleStyle.Render("Skills"))
	cmd.Println()
	for i := range skills {
		st := &skills[i]
		cmd.Printf("  %s %s %s\n",
			padRight(st.Skill.ID, 16),
			padRight(renderStatus(st.Status), 14),
			providerSummary(st.ProviderStatus))
		if st.Skill.Description != "" {
			cmd.Printf("      %s\n", mutedStyle.Render(st.Skill.Description))
		}
	}
	cmd.Println()
	cmd.Printf("Total: %d skills\n", len(skills))
	return nil
}

type skillListJSON struct {
	ID             string                   `json:"id"`
	Name           string                   `json:"name"`
	Description    string                   `json:"description,omitempty"`
	Status         domain.Status            `json:"status"`
	ProviderStatus map[string]domain.Status `json:"provider_status"`
	Checksum       string                   `json:"checksum"`
}

func outputSkillsJSON(cmd *cobra.Command, skills []domain.SkillStatus) error {
	out := make([]skillListJSON, len(skills))
	for i, st := range skills {
		ps := st.ProviderStatus
		if ps == nil {
			ps = map[string]domain.Status{}
		}
		out[i] = skillListJSON{
			ID:             st.Skill.ID,
			Name:           st.Skill.Name,
			Description:    st.Skill.Description,
			Status:         st.Status,
			ProviderStatus: ps,
			Checksum:       st.Checksum,
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func providerSummary(ps map[string]domain.Status) string {
	if len(ps) == 0 {
		return mutedStyle.Render("-")
	}
	ids := make([]string, 0, len(ps))
	for id := range ps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id + ":" + renderStatus(ps[id])
	}
	return strings.Join(parts, " ")
}

func runSkillsShow(cmd *cobra.Command, args []string) error {
	if err := requireSkills(); err != nil {
		return err
	}

	detail, err := skillService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get skill: %w", err)
	}
	skill := &detail.Skill

	title := skill.ID
	if skill.Name != "" && skill.Name != skill.ID {
		title += " (" + skill.Name + ")"
	}
	cmd.Println(titleStyle.Render("Skill: " + title))
	if skill.Description != "" {
		cmd.Printf("  %s\n", skill.Description)
	}
	cmd.Println()
	cmd.Printf("  Status:   %s\n", renderStatus(detail.Status))
	cmd.Printf("  Checksum: %s\n", mutedStyle.Render(detail.Checksum))
	if skill.TestCommand != "" {
		cmd.Printf("  Test:     %s\n", skill.TestCommand)
	}
	if skill.OAuth != nil {
		cmd.Printf("  OAuth:    %s\n", skill.OAuth.AuthURL)
	}

	if len(detail.ProviderStatus) > 0 {
		cmd.Println("\n  Providers:")
		ids := make([]string, 0, len(detail.ProviderStatus))
		for id := range detail.ProviderStatus {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			cmd.Printf("    %s %s\n", padRight(id, 10), renderStatus(detail.ProviderStatus[id]))
		}
	}

	if skill.NeedsConfig() {
		cmd.Println("\n  Configuration:")
		printConfig(cmd, skill, detail.Config)
	}

	if len(detail.Dependencies) > 0 {
		cmd.Println("\n  Dependencies:")
		for _, dep := range detail.Dependencies {
			state := errorStyle.Render("missing")
			if dep.Available {
				state = successStyle.Render("found")
			}
			cmd.Printf("    %s %s\n", padRight(dep.Name, 12), state)
		}
	}
	return nil
}

func printConfig(cmd *cobra.Command, skill *domain.Skill, values domain.FieldValues) {
	for _, f := range skill.Fields {
		switch field := f.(type) {
		case *domain.ScalarField:
			value, ok := values.Scalars[field.Name]
			display := mutedStyle.Render("(not set)")
			if ok {
				display = value
				if field.Secret {
					display = maskSecret(value)
				}
			}
			cmd.Printf("    %s (%s): %s\n", field.Name, field.EnvVar, display)

		case *domain.ListField:
			lv := values.Lists[field.Name]
			if lv == nil || len(lv.Items) == 0 {
				cmd.Printf("    %s: %s\n", field.Name, mutedStyle.Render("(no items)"))
				continue
			}
			cmd.Printf("    %s:\n", field.Name)
			for _, item := range lv.Items {
				label := item.Slug
				if domain.NormalizeSlug(item.Slug) == domain.NormalizeSlug(lv.Default) {
					label += " " + infoStyle.Render("(default)")
				}
				cmd.Printf("      %s: %s\n", label, itemSummary(field, item))
			}
		}
	}
}

// itemSummary renders an item's attributes in declaration order followed
// by any token keys. Secrets and tokens are masked.
func itemSummary(field *domain.ListField, item domain.ListItem) string {
	secret := make(map[string]bool)
	var keys []string
	for _, attr := range field.Attributes() {
		if _, ok := item.Values[attr.Name]; ok {
			keys = append(keys, attr.Name)
		}
		secret[attr.Name] = attr.Secret
	}
	var extra []string
	for k := range item.Values {
		if _, declared := secret[k]; !declared {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)

	parts := make([]string, 0, len(keys)+len(extra))
	for _, k := range keys {
		v := item.Values[k]
		if secret[k] {
			v = maskSecret(v)
		}
		parts = append(parts, k+"="+v)
	}
	for _, k := range extra {
		parts = append(parts, k+"="+maskSecret(item.Values[k]))
	}
	if len(parts) == 0 {
		return mutedStyle.Render("(empty)")
	}
	return strings.Join(parts, ", ")
}

func runSkillsInstall(cmd *cobra.Command, args []string) error {
	if err := requireSkills(); err != nil {
		return err
	}
	ctx := cmd.Context()

	if targetProvider != "" {
		if err := skillService.InstallTo(ctx, args[0], targetProvider); err != nil {
			return fmt.Errorf("install failed: %w", err)
		}
		cmd.Printf("Installed %s to %s.\n", args[0], targetProvider)
		return nil
	}

	results, err := skillService.Install(ctx, args[0])
	if err != nil {
		return fmt.Errorf("install failed: %w", err)
	}
	return printResults(cmd, "Installed", args[0], results)
}

func runSkillsUpdate(cmd *cobra.Command, args []string) error {
	if err := requireSkills(); err != nil {
		return err
	}
	results, err := skillService.Update(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	return printResults(cmd, "Updated", args[0], results)
}

// printResults prints per-provider outcomes. It fails when no provider
// succeeded.
func printResults(cmd *cobra.Command, verb, skillID string, results []domain.DeployResult) error {
	failed := 0
	for _, r := range results {
		line := fmt.Sprintf("  %s %s", padRight(r.Provider, 10), renderOutcome(r.Success))
		if !r.Success {
			failed++
			line += " " + errorStyle.Render(r.Error)
		}
		cmd.Println(line)
	}
	if failed > 0 && failed == len(results) {
		return fmt.Errorf("%s: every provider failed", skillID)
	}
	cmd.Printf("%s %s.\n", verb, skillID)
	return nil
}

func runSkillsUninstall(cmd *cobra.Command, args []string) error {
	if err := requireSkills(); err != nil {
		return err
	}
	ctx := cmd.Context()

	var (
		removed bool
		err     error
	)
	if targetProvider != "" {
		removed, err = skillService.UninstallFrom(ctx, args[0], targetProvider)
	} else {
		removed, err = skillService.Uninstall(ctx, args[0])
	}
	if err != nil {
		return fmt.Errorf("uninstall failed: %w", err)
	}

	if removed {
		cmd.Printf("Uninstalled %s.\n", args[0])
	} else {
		cmd.Printf("%s is not installed.\n", args[0])
	}
	return nil
}

func runSkillsConfigure(cmd *cobra.Command, args []string) error {
	if err := requireSkills(); err != nil {
		return err
	}
	ctx := cmd.Context()

	detail, err := skillService.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get skill: %w", err)
	}
	skill := &detail.Skill
	if !skill.NeedsConfig() {
		cmd.Printf("%s has no configuration fields.\n", skill.ID)
		return nil
	}

	values := cloneValues(detail.Config)
	edits := configEdits{sets: configSets, items: configItems, removes: configRemoves, defaults: configDefault}
	if edits.empty() {
		promptScalars(newPrompter(cmd), skill, &values)
	} else if err := edits.apply(skill, &values); err != nil {
		return err
	}

	if err := skillService.Configure(ctx, skill.ID, values); err != nil {
		return fmt.Errorf("configure failed: %w", err)
	}
	cmd.Printf("Configured %s.\n", skill.ID)
	return nil
}

func promptScalars(p *prompter, skill *domain.Skill, values *domain.FieldValues) {
	for _, f := range skill.Fields {
		field, ok := f.(*domain.ScalarField)
		if !ok {
			continue
		}
		label := field.Label
		if label == "" {
			label = field.Name
		}
		current := values.Scalars[field.Name]
		var answer string
		if field.Secret {
			answer = p.askSecret(label, current)
		} else {
			answer = p.ask(label, current)
		}
		if answer != "" {
			values.Scalars[field.Name] = answer
		}
	}
}

// configEdits are the flag-driven changes applied on top of the current
// configuration.
type configEdits struct {
	sets     []string
	items    []string
	removes  []string
	defaults []string
}

func (e configEdits) empty() bool {
	return len(e.sets) == 0 && len(e.items) == 0 && len(e.removes) == 0 && len(e.defaults) == 0
}

func (e configEdits) apply(skill *domain.Skill, values *domain.FieldValues) error {
	for _, kv := range e.sets {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("%w: --set %q must be name=value", domain.ErrInvalidInput, kv)
		}
		f, found := skill.Field(name)
		if _, scalar := f.(*domain.ScalarField); !found || !scalar {
			return fmt.Errorf("%w: %s.%s", domain.ErrFieldNotFound, skill.ID, name)
		}
		values.Scalars[name] = value
	}

	for _, ref := range e.removes {
		lf, slug, err := itemRef(skill, ref)
		if err != nil {
			return err
		}
		lv := values.Lists[lf.Name]
		if lv == nil {
			continue
		}
		kept := lv.Items[:0]
		for _, item := range lv.Items {
			if domain.NormalizeSlug(item.Slug) != slug {
				kept = append(kept, item)
			}
		}
		lv.Items = kept
		if domain.NormalizeSlug(lv.Default) == slug {
			lv.Default = ""
		}
	}

	for _, item := range e.items {
		ref, value, ok := strings.Cut(item, "=")
		if !ok {
			return fmt.Errorf("%w: --item %q must be field/slug/attribute=value", domain.ErrInvalidInput, item)
		}
		idx := strings.LastIndex(ref, "/")
		if idx < 0 {
			return fmt.Errorf("%w: --item %q must be field/slug/attribute=value", domain.ErrInvalidInput, item)
		}
		lf, slug, err := itemRef(skill, ref[:idx])
		if err != nil {
			return err
		}
		attr := ref[idx+1:]
		if !hasAttribute(lf, attr) {
			return fmt.Errorf("%w: %s.%s.%s", domain.ErrFieldNotFound, skill.ID, lf.Name, attr)
		}
		listValue(values, lf.Name).setItem(slug, attr, value)
	}

	for _, kv := range e.defaults {
		name, slug, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("%w: --default %q must be field=slug", domain.ErrInvalidInput, kv)
		}
		if _, found := skill.ListField(name); !found {
			return fmt.Errorf("%w: %s.%s", domain.ErrFieldNotFound, skill.ID, name)
		}
		listValue(values, name).Default = domain.NormalizeSlug(slug)
	}
	return nil
}

// itemRef resolves "field/slug" to a declared list field and normalized slug.
func itemRef(skill *domain.Skill, ref string) (*domain.ListField, string, error) {
	name, slug, ok := strings.Cut(ref, "/")
	if !ok || slug == "" {
		return nil, "", fmt.Errorf("%w: %q must be field/slug", domain.ErrInvalidInput, ref)
	}
	lf, found := skill.ListField(name)
	if !found {
		return nil, "", fmt.Errorf("%w: %s.%s", domain.ErrFieldNotFound, skill.ID, name)
	}
	return lf, domain.NormalizeSlug(slug), nil
}

func hasAttribute(lf *domain.ListField, name string) bool {
	for _, attr := range lf.Attributes() {
		if attr.Name == name {
			return true
		}
	}
	return false
}

type listEditor struct{ *domain.ListValue }

func listValue(values *domain.FieldValues, name string) listEditor {
	lv := values.Lists[name]
	if lv == nil {
		lv = &domain.ListValue{}
		values.Lists[name] = lv
	}
	return listEditor{lv}
}

func (l listEditor) setItem(slug, attr, value string) {
	if item, ok := l.Item(slug); ok {
		item.Values[attr] = value
		return
	}
	l.Items = append(l.Items, domain.ListItem{Slug: slug, Values: map[string]string{attr: value}})
}

func cloneValues(in domain.FieldValues) domain.FieldValues {
	out := domain.NewFieldValues()
	for k, v := range in.Scalars {
		out.Scalars[k] = v
	}
	for name, lv := range in.Lists {
		if lv == nil {
			continue
		}
		cp := &domain.ListValue{Default: lv.Default, Items: make([]domain.ListItem, len(lv.Items))}
		for i, item := range lv.Items {
			vals := make(map[string]string, len(item.Values))
			for k, v := range item.Values {
				vals[k] = v
			}
			cp.Items[i] = domain.ListItem{Slug: item.Slug, Values: vals}
		}
		out.Lists[name] = cp
	}
	return out
}

func runSkillsTest(cmd *cobra.Command, args []string) error {
	if err := requireSkills(); err != nil {
		return err
	}
	result, err := skillService.Test(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("test failed: %w", err)
	}

	cmd.Println(result.Output)
	if !result.Success {
		return fmt.Errorf("%s: self-test failed", args[0])
	}
	cmd.Println(successStyle.Render("Test passed."))
	return nil
}

func runSkillsClearAuth(cmd *cobra.Command, args []string) error {
	if err := requireSkills(); err != nil {
		return err
	}
	removed, err := skillService.ClearCredentials(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	if removed {
		cmd.Printf("Credentials for %s removed.\n", args[0])
	} else {
		cmd.Printf("No credentials stored for %s.\n", args[0])
	}
	return nil
}

func runSkillsAuth(cmd *cobra.Command, args []string) error {
	if err := requireSkills(); err != nil {
		return err
	}
	ctx := cmd.Context()

	if authItem != "" {
		field, slug, ok := strings.Cut(authItem, "/")
		if !ok || slug == "" {
			return fmt.Errorf("%w: --item must be field/slug", domain.ErrInvalidInput)
		}
		attrs := make(map[string]string, len(authAttrs))
		for _, kv := range authAttrs {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("%w: --attr %q must be name=value", domain.ErrInvalidInput, kv)
			}
			attrs[k] = v
		}
		req := driving.ItemAuthRequest{
			Field:        field,
			Slug:         slug,
			ClientID:     authClientID,
			ClientSecret: authClientSecret,
			Attributes:   attrs,
		}
		if err := skillService.AuthorizeItem(ctx, args[0], req); err != nil {
			return fmt.Errorf("authorization failed: %w", err)
		}
		cmd.Printf("Authorized %s %s.\n", args[0], authItem)
		return nil
	}

	detail, err := skillService.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get skill: %w", err)
	}
	clientID := firstSet(authClientID, storedScalar(&detail.Skill, detail.Config, "CLIENT_ID"))
	clientSecret := firstSet(authClientSecret, storedScalar(&detail.Skill, detail.Config, "CLIENT_SECRET"))

	p := newPrompter(cmd)
	if clientID == "" {
		clientID = p.ask("Client ID", "")
	}
	if clientSecret == "" {
		clientSecret = p.askSecret("Client secret", "")
	}

	cmd.Println("Opening browser for authorization...")
	if err := skillService.Authorize(ctx, args[0], clientID, clientSecret); err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}
	cmd.Printf("Authorized %s.\n", args[0])
	return nil
}

// storedScalar returns the stored value of the first scalar field whose
// variable name contains marker.
func storedScalar(skill *domain.Skill, values domain.FieldValues, marker string) string {
	for _, f := range skill.Fields {
		if sf, ok := f.(*domain.ScalarField); ok && strings.Contains(sf.EnvVar, marker) {
			if v := values.Scalars[sf.Name]; v != "" {
				return v
			}
		}
	}
	return ""
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
