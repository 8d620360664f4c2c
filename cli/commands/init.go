package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/petal-labs/anthropic/anthropic"
	"github.com/petal-labs/anthropic/cli/config"
)

func (a *App) newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init <project-name>",
		Short: "Initialize a new project using the Anthropic client",
		Long: `Initialize a new Go project that talks to the Anthropic API.

Creates a project directory with:
  - main.go: a starter program that streams a reply
  - tools/: directory for custom tools
  - config.yaml: CLI configuration for the project
  - .env.example: environment template for the API key

Example:
  anthropic init myagent
  anthropic init myagent --model claude-haiku-4-5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := scaffoldProject(args[0], a.model); err != nil {
				return exitWithCode(ExitValidation, err)
			}

			fmt.Fprintf(a.stdout, "Created project: %s\n\n", filepath.Base(args[0]))
			fmt.Fprintln(a.stdout, "Next steps:")
			fmt.Fprintf(a.stdout, "  cd %s\n", args[0])
			fmt.Fprintf(a.stdout, "  cp .env.example .env   # then set %s\n", anthropic.DefaultAPIKeyEnvVar)
			fmt.Fprintln(a.stdout, "  go mod tidy && go run .")
			return nil
		},
	}
}

var validProjectName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

func validateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("project name cannot be empty")
	}
	if !validProjectName.MatchString(name) {
		return fmt.Errorf("invalid project name %q: must start with a letter and contain only letters, numbers, underscores, and hyphens", name)
	}
	if name == "anthropic" {
		return fmt.Errorf("invalid project name %q: reserved name", name)
	}
	return nil
}

type templateData struct {
	Name   string
	Model  string
	EnvVar string
}

// scaffoldProject creates the project at projectPath.
func scaffoldProject(projectPath, model string) error {
	name := filepath.Base(projectPath)
	if err := validateProjectName(name); err != nil {
		return err
	}
	if _, err := os.Stat(projectPath); err == nil {
		return fmt.Errorf("directory %q already exists", projectPath)
	}
	if model == "" {
		model = anthropic.ModelClaudeSonnet45
	}

	toolsDir := filepath.Join(projectPath, "tools")
	if err := os.MkdirAll(toolsDir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", toolsDir, err)
	}
	if err := os.WriteFile(filepath.Join(toolsDir, ".gitkeep"), nil, 0644); err != nil {
		return fmt.Errorf("create .gitkeep: %w", err)
	}

	data := templateData{Name: name, Model: model, EnvVar: anthropic.DefaultAPIKeyEnvVar}
	files := []struct {
		name string
		tmpl string
	}{
		{"main.go", mainGoTemplate},
		{"go.mod", goModTemplate},
		{".env.example", envExampleTemplate},
	}
	for _, f := range files {
		if err := generateFile(filepath.Join(projectPath, f.name), f.tmpl, data); err != nil {
			return fmt.Errorf("create %s: %w", f.name, err)
		}
	}

	cfg := &config.Config{DefaultModel: model, MaxTokens: anthropic.DefaultMaxTokens}
	if err := config.Save(filepath.Join(projectPath, "config.yaml"), cfg); err != nil {
		return fmt.Errorf("create config.yaml: %w", err)
	}
	return nil
}

func generateFile(path string, tmplContent string, data templateData) error {
	tmpl, err := template.New(filepath.Base(path)).Parse(tmplContent)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return tmpl.Execute(f, data)
}

// Templates

var mainGoTemplate = `package main

import (
	"context"
	"fmt"
	"os"

	"github.com/petal-labs/anthropic/anthropic"
)

func main() {
	client, err := anthropic.NewFromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	req, err := anthropic.NewRequest("{{.Model}}").
		User("Hello, world!").
		Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	stream, err := client.Messages().CreateStream(context.Background(), req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	defer stream.Close()

	for ev, err := range stream.All() {
		if err != nil {
			fmt.Fprintln(os.Stderr, "\nError:", err)
			os.Exit(1)
		}
		if d, ok := ev.StreamEvent.(anthropic.ContentBlockDeltaEvent); ok {
			if t, ok := d.Delta.(anthropic.TextDelta); ok {
				fmt.Print(t.Text)
			}
		}
	}
	fmt.Println()
}
`

var goModTemplate = `module {{.Name}}

go 1.25

require github.com/petal-labs/anthropic v0.1.0
`

var envExampleTemplate = `# Copy to .env and fill in.
{{.EnvVar}}=
`
