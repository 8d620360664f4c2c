package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/petal-labs/anthropic/anthropic"
	"github.com/petal-labs/anthropic/transport"
)

// Version information set at build time via ldflags.
// Example: go build -ldflags "-X github.com/petal-labs/anthropic/cli/commands.Version=v1.0.0"
var (
	// Version is the semantic version of the CLI.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the date when the binary was built.
	BuildDate = "unknown"
)

type versionInfo struct {
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	BuildDate  string `json:"buildDate"`
	GoVersion  string `json:"goVersion"`
	Platform   string `json:"platform"`
	APIVersion string `json:"apiVersion"`
	BaseURL    string `json:"baseURL"`
}

// apiTarget reports the base URL and anthropic-version header that requests
// made by this invocation would use.
func (a *App) apiTarget() (baseURL, apiVersion string) {
	baseURL, apiVersion = transport.DefaultBaseURL, transport.DefaultVersion
	if base := a.getenv(anthropic.BaseURLEnvVar); base != "" {
		baseURL = base
	}
	if a.cfg != nil {
		if a.cfg.BaseURL != "" {
			baseURL = a.cfg.BaseURL
		}
		if a.cfg.Version != "" {
			apiVersion = a.cfg.Version
		}
	}
	return baseURL, apiVersion
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the CLI build, Go runtime, and the API endpoint and version requests are sent with.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			baseURL, apiVersion := a.apiTarget()
			info := versionInfo{
				Version:    Version,
				Commit:     Commit,
				BuildDate:  BuildDate,
				GoVersion:  runtime.Version(),
				Platform:   runtime.GOOS + "/" + runtime.GOARCH,
				APIVersion: apiVersion,
				BaseURL:    baseURL,
			}
			if a.jsonOutput {
				return a.writeJSON(info)
			}

			fmt.Fprintf(a.stdout, "anthropic %s\n", info.Version)
			fmt.Fprintf(a.stdout, "  commit:      %s\n", info.Commit)
			fmt.Fprintf(a.stdout, "  built:       %s\n", info.BuildDate)
			fmt.Fprintf(a.stdout, "  go version:  %s\n", info.GoVersion)
			fmt.Fprintf(a.stdout, "  platform:    %s\n", info.Platform)
			fmt.Fprintf(a.stdout, "  api version: %s\n", info.APIVersion)
			fmt.Fprintf(a.stdout, "  base url:    %s\n", info.BaseURL)
			return nil
		},
	}
}
