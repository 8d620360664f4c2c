package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petal-labs/anthropic/cli/config"
)

func TestValidateProjectName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "myagent", false},
		{"valid with numbers", "agent123", false},
		{"valid with underscore", "my_agent", false},
		{"valid with hyphen", "my-agent", false},
		{"empty", "", true},
		{"starts with number", "123agent", true},
		{"starts with hyphen", "-agent", true},
		{"contains space", "my agent", true},
		{"contains dot", "my.agent", true},
		{"reserved dot", ".", true},
		{"reserved dotdot", "..", true},
		{"reserved anthropic", "anthropic", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateProjectName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateProjectName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestGenerateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")

	err := generateFile(path, "Hello {{.Name}} on {{.Model}}!", templateData{Name: "world", Model: "claude-haiku-4-5"})
	if err != nil {
		t.Fatalf("generateFile() error = %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(content) != "Hello world on claude-haiku-4-5!" {
		t.Errorf("generateFile() content = %q", string(content))
	}
}

func TestScaffoldProject(t *testing.T) {
	projectPath := filepath.Join(t.TempDir(), "testproject")

	if err := scaffoldProject(projectPath, "claude-haiku-4-5"); err != nil {
		t.Fatalf("scaffoldProject() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(projectPath, "tools", ".gitkeep")); err != nil {
		t.Errorf(".gitkeep not created: %v", err)
	}

	mainContent, err := os.ReadFile(filepath.Join(projectPath, "main.go"))
	if err != nil {
		t.Fatalf("main.go not created: %v", err)
	}
	for _, want := range []string{"package main", "anthropic.NewFromEnv()", `anthropic.NewRequest("claude-haiku-4-5")`, "CreateStream"} {
		if !strings.Contains(string(mainContent), want) {
			t.Errorf("main.go missing %q", want)
		}
	}

	goMod, err := os.ReadFile(filepath.Join(projectPath, "go.mod"))
	if err != nil {
		t.Fatalf("go.mod not created: %v", err)
	}
	if !strings.HasPrefix(string(goMod), "module testproject\n") {
		t.Errorf("go.mod = %q, want module testproject", string(goMod))
	}

	env, err := os.ReadFile(filepath.Join(projectPath, ".env.example"))
	if err != nil {
		t.Fatalf(".env.example not created: %v", err)
	}
	if !strings.Contains(string(env), "ANTHROPIC_API_KEY=") {
		t.Errorf(".env.example = %q, want ANTHROPIC_API_KEY", string(env))
	}

	cfg, err := config.LoadConfig(filepath.Join(projectPath, "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.DefaultModel != "claude-haiku-4-5" {
		t.Errorf("DefaultModel = %q, want claude-haiku-4-5", cfg.DefaultModel)
	}
	if cfg.MaxTokens != 2048 {
		t.Errorf("MaxTokens = %d, want 2048", cfg.MaxTokens)
	}
}

func TestScaffoldProjectDefaultModel(t *testing.T) {
	projectPath := filepath.Join(t.TempDir(), "demo")

	if err := scaffoldProject(projectPath, ""); err != nil {
		t.Fatalf("scaffoldProject() error = %v", err)
	}
	cfg, err := config.LoadConfig(filepath.Join(projectPath, "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.DefaultModel != "claude-sonnet-4-5" {
		t.Errorf("DefaultModel = %q, want claude-sonnet-4-5", cfg.DefaultModel)
	}
}

func TestScaffoldProjectExistingDirectory(t *testing.T) {
	projectPath := filepath.Join(t.TempDir(), "existing")
	if err := os.MkdirAll(projectPath, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	err := scaffoldProject(projectPath, "")
	if err == nil {
		t.Fatal("scaffoldProject() should fail for an existing directory")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("error = %v, want 'already exists'", err)
	}
}

func TestInitCommand(t *testing.T) {
	projectPath := filepath.Join(t.TempDir(), "cliproject")
	app := newTestApp(t, testAppOptions{})

	if err := app.run("init", projectPath, "--model", "claude-opus-4-5"); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(app.stdout.String(), "Created project: cliproject") {
		t.Errorf("stdout = %q", app.stdout.String())
	}

	cfg, err := config.LoadConfig(filepath.Join(projectPath, "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.DefaultModel != "claude-opus-4-5" {
		t.Errorf("DefaultModel = %q, want claude-opus-4-5", cfg.DefaultModel)
	}
}

func TestInitCommandInvalidName(t *testing.T) {
	app := newTestApp(t, testAppOptions{})

	err := app.run("init", filepath.Join(t.TempDir(), "9lives"))
	if code := exitCodeOf(t, err); code != ExitValidation {
		t.Errorf("exit code = %d, want %d", code, ExitValidation)
	}
}
