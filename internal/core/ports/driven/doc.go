// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - SkillRepository: Reads skill declarations from the skills directory
//   - ProviderStore: Provider registry persistence
//   - OAuthClient: Authorization URL construction and token exchange
//   - CallbackListenerFactory: Loopback listener for the OAuth redirect
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - HistoryStore: Event history. Without it, nothing is recorded.
//   - BrowserOpener: Without it, the authorization URL is only printed.
//   - CommandRunner: Without it, self-tests and dependency checks are unavailable.
//   - SourceControl: Without it, self-update is unavailable.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
