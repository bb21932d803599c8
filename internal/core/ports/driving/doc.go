// Package driving declares what the installer offers its front ends: the
// SkillService facade, the ProviderRegistry, the CredentialService and the
// OAuthFlow. The cli, api, mcp and watch adapters call these; the services
// package implements them.
package driving
