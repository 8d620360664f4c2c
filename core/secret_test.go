package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestNewSecret(t *testing.T) {
	secret := NewSecret("  sk-ant-api-key\n")
	if secret.value != "sk-ant-api-key" {
		t.Errorf("NewSecret() value = %q, want %q", secret.value, "sk-ant-api-key")
	}
}

func TestSecretRedaction(t *testing.T) {
	secret := NewSecret("sk-ant-abc123xyz")

	if got := secret.String(); got != "[REDACTED]" {
		t.Errorf("Secret.String() = %q, want [REDACTED]", got)
	}
	if got := secret.GoString(); got != "core.Secret{[REDACTED]}" {
		t.Errorf("Secret.GoString() = %q, want core.Secret{[REDACTED]}", got)
	}

	got, err := secret.MarshalJSON()
	if err != nil {
		t.Fatalf("Secret.MarshalJSON() error = %v", err)
	}
	if string(got) != `"[REDACTED]"` {
		t.Errorf("Secret.MarshalJSON() = %s, want \"[REDACTED]\"", got)
	}

	got, err = secret.MarshalText()
	if err != nil {
		t.Fatalf("Secret.MarshalText() error = %v", err)
	}
	if string(got) != "[REDACTED]" {
		t.Errorf("Secret.MarshalText() = %s, want [REDACTED]", got)
	}
}

func TestSecretFormatting(t *testing.T) {
	secret := NewSecret("sk-ant-abc123xyz")

	formats := []string{"%s", "%v", "%+v", "%#v", "%q"}
	for _, f := range formats {
		out := fmt.Sprintf(f, secret)
		if strings.Contains(out, "abc123") {
			t.Errorf("Sprintf(%q) = %q, leaked the secret", f, out)
		}
	}
}

func TestSecretInStruct(t *testing.T) {
	type config struct {
		BaseURL string `json:"base_url"`
		APIKey  Secret `json:"api_key"`
	}
	cfg := config{BaseURL: "https://api.anthropic.com", APIKey: NewSecret("sk-ant-abc123xyz")}

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "abc123") {
		t.Errorf("json.Marshal() = %s, leaked the secret", data)
	}
	if !strings.Contains(string(data), `"api_key":"[REDACTED]"`) {
		t.Errorf("json.Marshal() = %s, want redacted api_key", data)
	}

	if out := fmt.Sprintf("%+v", cfg); strings.Contains(out, "abc123") {
		t.Errorf("Sprintf(%%+v) = %q, leaked the secret", out)
	}
}

func TestSecretExpose(t *testing.T) {
	value := "sk-ant-abc123xyz"
	if got := NewSecret(value).Expose(); got != value {
		t.Errorf("Secret.Expose() = %q, want %q", got, value)
	}
}

func TestSecretIsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"empty string", "", true},
		{"whitespace only", "  \t", true},
		{"non-empty string", "sk-ant-abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewSecret(tt.value).IsEmpty(); got != tt.want {
				t.Errorf("Secret.IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}

	var zero Secret
	if !zero.IsEmpty() {
		t.Error("zero Secret should be empty")
	}
}

func TestSecretHint(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"sk-ant-api03-abcdWXYZ", "...WXYZ"},
		{"short", "[REDACTED]"},
		{"", "[REDACTED]"},
	}

	for _, tt := range tests {
		if got := NewSecret(tt.value).Hint(); got != tt.want {
			t.Errorf("Secret(%q).Hint() = %q, want %q", tt.value, got, tt.want)
		}
	}
}
