package domain

import "time"

// Status is the derived installation state of a skill for one provider.
type Status string

const (
	StatusNotInstalled Status = "not_installed"
	StatusOutdated     Status = "outdated"
	StatusInstalled    Status = "installed"
	StatusConfigured   Status = "configured"
)

// Marker files written next to deployed skill files.
const (
	// ChecksumFile records the checksum computed when files were last written.
	ChecksumFile = ".checksum"
	// CredentialFile is the credential artifact, canonical or copied.
	CredentialFile = ".env"
)

// SkillStatus is a skill together with its computed installation state.
type SkillStatus struct {
	Skill          Skill
	Checksum       string
	Status         Status
	ProviderStatus map[string]Status
}

// DeployResult reports the outcome of deploying to one provider.
type DeployResult struct {
	Provider string
	Success  bool
	Error    string
}

// Dependency reports whether a declared dependency is available.
type Dependency struct {
	Name      string
	Available bool
	Path      string
}

// TestResult is the outcome of running a skill's self-test command.
type TestResult struct {
	Success bool
	Output  string
}

// UpdateCheck reports whether the skills repository is behind its remote.
type UpdateCheck struct {
	HasUpdates bool
	Error      string
}

// Action is a recorded mutation of installation or credential state.
type Action string

const (
	ActionInstall   Action = "install"
	ActionUpdate    Action = "update"
	ActionUninstall Action = "uninstall"
	ActionConfigure Action = "configure"
	ActionAuthorize Action = "authorize"
	ActionClear     Action = "clear"
)

// Event is one entry of the installer's history.
type Event struct {
	ID        string
	SkillID   string
	Provider  string
	Action    Action
	Success   bool
	Message   string
	CreatedAt time.Time
}
