// Package services holds the installer's core logic: checksums, the provider
// registry, status derivation, deployment, the central credential store with
// its synchronizer, the loopback OAuth flow, and the SkillService facade that
// ties them together for the CLI, API, MCP and watch adapters.
//
// Services reach the outside world only through ports/driven interfaces and
// an afero.Fs, so every test runs against in-memory adapters.
package services
