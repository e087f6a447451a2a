package requirement

import "github.com/felixgeelhaar/bivvy/internal/domain/platform"

const (
	homebrewInstall = `/bin/bash -c "$(curl -fsSL https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh)"`
	miseInstall     = "curl https://mise.run | sh"
)

func builtins(plat *platform.Platform) []Requirement {
	if plat == nil {
		plat = platform.Detect()
	}
	macOS := plat.IsMacOS()

	brewServices := func(formula string) string {
		if macOS {
			return "brew services start " + formula
		}
		return ""
	}

	var rbenvDeps []string
	rbenvInstall := "git clone https://github.com/rbenv/rbenv.git ~/.rbenv"
	if macOS {
		rbenvDeps = []string{"brew"}
		rbenvInstall = "brew install rbenv ruby-build"
	}

	return []Requirement{
		{
			Name: "ruby",
			Checks: []Check{{Kind: CheckManagedCommand, Managed: &ManagedCommand{
				Tool:            "ruby",
				ManagedPatterns: []string{"mise/", "rbenv/", "asdf/", "chruby/", ".rubies/"},
				SystemPatterns:  []string{"/usr/bin/ruby", "/System/", "/Library/"},
				VersionFile:     ".ruby-version",
				VersionTool:     "ruby",
			}}},
			InstallTemplate: "mise-ruby",
			InstallHint:     "Install Ruby via a version manager (mise, rbenv)",
			InstallCommand:  "mise install ruby",
			InstallCommands: map[string]string{
				"rbenv": "rbenv install --skip-existing",
				"mise":  "mise install ruby",
			},
			InstallRequires: preferManager("rbenv"),
		},
		{
			Name: "node",
			Checks: []Check{{Kind: CheckManagedCommand, Managed: &ManagedCommand{
				Tool:            "node",
				ManagedPatterns: []string{"volta/", "nvm/", "fnm/", "mise/"},
				SystemPatterns:  []string{"/usr/bin/node"},
				VersionFile:     ".node-version",
				VersionTool:     "node",
			}}},
			InstallTemplate: "mise-node",
			InstallHint:     "Install Node.js via a version manager (mise, volta, nvm)",
			InstallCommand:  "mise install node",
			InstallCommands: map[string]string{
				"volta": "volta install node",
				"nvm":   `. "${NVM_DIR:-$HOME/.nvm}/nvm.sh" && nvm install`,
				"mise":  "mise install node",
			},
			InstallRequires: preferManager("volta", "nvm"),
		},
		{
			Name: "python",
			Checks: []Check{{Kind: CheckAny, Any: []Check{
				{Kind: CheckManagedCommand, Managed: pythonCheck("python3")},
				{Kind: CheckManagedCommand, Managed: pythonCheck("python")},
			}}},
			InstallTemplate: "mise-python",
			InstallHint:     "Install Python via a version manager (mise, pyenv)",
			InstallCommand:  "mise install python",
			InstallCommands: map[string]string{
				"pyenv": "pyenv install --skip-existing",
				"mise":  "mise install python",
			},
			InstallRequires: preferManager("pyenv"),
		},
		{
			Name:        "postgres",
			Checks:      []Check{{Kind: CheckCommandSucceeds, Command: "psql --version"}},
			InstallHint: "Install PostgreSQL (e.g. brew install postgresql@16)",
		},
		{
			Name: "postgres-server",
			Checks: []Check{{
				Kind:         CheckServiceReachable,
				Command:      "pg_isready -q",
				StartCommand: brewServices("postgresql@16"),
			}},
			InstallHint: "Start PostgreSQL (e.g. brew services start postgresql@16)",
		},
		{
			Name: "redis-server",
			Checks: []Check{{
				Kind:         CheckServiceReachable,
				Command:      "redis-cli ping",
				StartCommand: brewServices("redis"),
			}},
			InstallHint: "Start Redis (e.g. brew services start redis)",
		},
		{
			Name:        "docker",
			Checks:      []Check{{Kind: CheckCommandSucceeds, Command: "docker info"}},
			InstallHint: "Install Docker Desktop: https://docs.docker.com/get-docker/",
		},
		{
			Name:            "brew",
			Checks:          []Check{{Kind: CheckCommandSucceeds, Command: "brew --version"}},
			InstallTemplate: "brew",
			InstallHint:     "Install Homebrew: " + homebrewInstall,
			InstallCommand:  homebrewInstall,
		},
		{
			Name:            "mise",
			Checks:          []Check{{Kind: CheckCommandSucceeds, Command: "mise --version"}},
			InstallTemplate: "mise",
			InstallHint:     "Install mise: https://mise.jdx.dev",
			InstallCommand:  miseInstall,
		},
		{
			Name:            "rust",
			Checks:          []Check{{Kind: CheckCommandSucceeds, Command: "rustc --version"}},
			InstallTemplate: "rustup",
			InstallHint:     "Install Rust: https://rustup.rs",
			InstallCommand:  "curl --proto '=https' --tlsv1.2 -sSf https://sh.rustup.rs | sh -s -- -y",
		},
		{
			Name:            "rbenv",
			Checks:          []Check{{Kind: CheckCommandSucceeds, Command: "rbenv --version"}},
			InstallTemplate: "rbenv",
			InstallHint:     "Install rbenv: https://github.com/rbenv/rbenv",
			InstallCommand:  rbenvInstall,
			DependsOn:       rbenvDeps,
		},
		{
			Name:            "pyenv",
			Checks:          []Check{{Kind: CheckCommandSucceeds, Command: "pyenv --version"}},
			InstallTemplate: "pyenv",
			InstallHint:     "Install pyenv: https://github.com/pyenv/pyenv",
			InstallCommand:  "curl https://pyenv.run | bash",
		},
		{
			Name:            "volta",
			Checks:          []Check{{Kind: CheckCommandSucceeds, Command: "volta --version"}},
			InstallTemplate: "volta",
			InstallHint:     "Install Volta: https://volta.sh",
			InstallCommand:  "curl https://get.volta.sh | bash",
		},
		{
			Name:            "nvm",
			Checks:          []Check{{Kind: CheckCommandSucceeds, Command: `test -s "${NVM_DIR:-$HOME/.nvm}/nvm.sh"`}},
			InstallTemplate: "nvm",
			InstallHint:     "Install nvm: https://github.com/nvm-sh/nvm",
			InstallCommand:  "curl -o- https://raw.githubusercontent.com/nvm-sh/nvm/v0.40.1/install.sh | bash",
		},
	}
}

func pythonCheck(tool string) *ManagedCommand {
	return &ManagedCommand{
		Tool:            tool,
		ManagedPatterns: []string{"mise/", "pyenv/", "asdf/"},
		SystemPatterns:  []string{"/usr/bin/python3", "/usr/bin/python"},
		VersionFile:     ".python-version",
		VersionTool:     "python",
	}
}
