package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_MinimalConfig(t *testing.T) {
	cfg, err := Parse([]byte("status_port: 0\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.Neynar.APIURL != DefaultNeynarURL {
		t.Errorf("Neynar.APIURL = %q, want %q", cfg.Neynar.APIURL, DefaultNeynarURL)
	}
	if cfg.Vercel.APIURL != DefaultVercelURL {
		t.Errorf("Vercel.APIURL = %q, want %q", cfg.Vercel.APIURL, DefaultVercelURL)
	}
	if cfg.Signer.MaxConsecutiveErrors != nil {
		t.Errorf("Signer.MaxConsecutiveErrors = %d, want nil", *cfg.Signer.MaxConsecutiveErrors)
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}
	if cfg.StatusPort != 0 {
		t.Errorf("StatusPort = %d, want 0", cfg.StatusPort)
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
status_port: 9090
neynar:
  api_url: http://localhost:4000
  api_key: nk-test
vercel:
  api_url: https://vercel.internal
  token: vt-test
  team_id: team_1
  project_id: prj_1
signer:
  interval: 2s
  timeout: 1m
  max_consecutive_errors: 3
deployment:
  interval: 10s
  timeout: 10m
  max_consecutive_errors: 0
login:
  interval: 500ms
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.StatusPort != 9090 {
		t.Errorf("StatusPort = %d, want 9090", cfg.StatusPort)
	}
	if cfg.Neynar.APIURL != "http://localhost:4000" || cfg.Neynar.APIKey != "nk-test" {
		t.Errorf("Neynar = %+v", cfg.Neynar)
	}
	if cfg.Vercel.TeamID != "team_1" || cfg.Vercel.ProjectID != "prj_1" || cfg.Vercel.Token != "vt-test" {
		t.Errorf("Vercel = %+v", cfg.Vercel)
	}
	if cfg.Signer.Interval.Duration() != 2*time.Second {
		t.Errorf("Signer.Interval = %v, want 2s", cfg.Signer.Interval.Duration())
	}
	if cfg.Signer.Timeout == nil || cfg.Signer.Timeout.Duration() != time.Minute {
		t.Errorf("Signer.Timeout = %v, want 1m", cfg.Signer.Timeout)
	}
	if cfg.Login.Timeout != nil {
		t.Errorf("Login.Timeout = %v, want unset", cfg.Login.Timeout.Duration())
	}
	if cfg.Signer.MaxConsecutiveErrors == nil || *cfg.Signer.MaxConsecutiveErrors != 3 {
		t.Errorf("Signer.MaxConsecutiveErrors = %v, want 3", cfg.Signer.MaxConsecutiveErrors)
	}
	if cfg.Deployment.MaxConsecutiveErrors == nil || *cfg.Deployment.MaxConsecutiveErrors != 0 {
		t.Errorf("Deployment.MaxConsecutiveErrors = %v, want explicit 0", cfg.Deployment.MaxConsecutiveErrors)
	}
	if cfg.Login.Interval.Duration() != 500*time.Millisecond {
		t.Errorf("Login.Interval = %v, want 500ms", cfg.Login.Interval.Duration())
	}
}

func TestParse_ZeroTimeoutIsExplicit(t *testing.T) {
	cfg, err := Parse([]byte("deployment:\n  timeout: 0s\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Deployment.Timeout == nil {
		t.Fatal("Deployment.Timeout = nil, want explicit 0")
	}
	if cfg.Deployment.Timeout.Duration() != 0 {
		t.Errorf("Deployment.Timeout = %v, want 0", cfg.Deployment.Timeout.Duration())
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	t.Setenv("TEST_NEYNAR_KEY", "from-env")
	t.Setenv("TEST_VERCEL_HOST", "vercel.example.com")

	yaml := `
neynar:
  api_key: ${TEST_NEYNAR_KEY}
vercel:
  api_url: https://${TEST_VERCEL_HOST}
  project_id: ${TEST_UNSET_PROJECT:-prj_default}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Neynar.APIKey != "from-env" {
		t.Errorf("Neynar.APIKey = %q, want from-env", cfg.Neynar.APIKey)
	}
	if cfg.Vercel.APIURL != "https://vercel.example.com" {
		t.Errorf("Vercel.APIURL = %q", cfg.Vercel.APIURL)
	}
	if cfg.Vercel.ProjectID != "prj_default" {
		t.Errorf("Vercel.ProjectID = %q, want prj_default", cfg.Vercel.ProjectID)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	_, err := Parse([]byte("vercel:\n  token: ${TEST_DEFINITELY_UNSET_TOKEN}\n"))
	if err == nil {
		t.Fatal("Parse() expected error for missing env var")
	}
	if !strings.Contains(err.Error(), "vercel.token") {
		t.Errorf("error = %v, want it to name vercel.token", err)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "negative port",
			yaml:    "status_port: -1",
			wantErr: "status_port",
		},
		{
			name:    "port too large",
			yaml:    "status_port: 70000",
			wantErr: "status_port",
		},
		{
			name:    "bad scheme",
			yaml:    "neynar:\n  api_url: ftp://example.com",
			wantErr: "neynar.api_url",
		},
		{
			name:    "missing host",
			yaml:    "vercel:\n  api_url: https://",
			wantErr: "vercel.api_url",
		},
		{
			name:    "interval too small",
			yaml:    "signer:\n  interval: 10ms",
			wantErr: "signer.interval",
		},
		{
			name:    "negative timeout",
			yaml:    "deployment:\n  timeout: -1s",
			wantErr: "deployment.timeout",
		},
		{
			name:    "negative retry budget",
			yaml:    "login:\n  max_consecutive_errors: -2",
			wantErr: "login.max_consecutive_errors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("signer: [unclosed")); err == nil {
		t.Fatal("Parse() expected error for invalid YAML")
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	_, err := Parse([]byte("signer:\n  interval: soon\n"))
	if err == nil {
		t.Fatal("Parse() expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error = %v, want invalid duration", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pollstate.yaml")
	if err := os.WriteFile(path, []byte("status_port: 8123\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StatusPort != 8123 {
		t.Errorf("StatusPort = %d, want 8123", cfg.StatusPort)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of missing file expected error")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Neynar.APIURL != DefaultNeynarURL || cfg.Vercel.APIURL != DefaultVercelURL {
		t.Errorf("Default() = %+v", cfg)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "value")
	t.Setenv("EMPTY_VAR", "") // set but empty

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"no vars", "plain text", "plain text", false},
		{"simple var", "${TEST_VAR}", "value", false},
		{"var in text", "prefix ${TEST_VAR} suffix", "prefix value suffix", false},
		{"multiple vars", "${TEST_VAR}-${TEST_VAR}", "value-value", false},
		{"with default (var set)", "${TEST_VAR:-default}", "value", false},
		{"with default (var unset)", "${UNSET:-default}", "default", false},
		{"missing required", "${MISSING}", "", true},
		{"empty default (var unset)", "${UNSET:-}", "", false},
		{"set but empty var", "${EMPTY_VAR}", "", false},
		{"set but empty with default", "${EMPTY_VAR:-fallback}", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandEnvVars(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expandEnvVars() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expandEnvVars() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandEnvVars() = %q, want %q", got, tt.want)
			}
		})
	}
}
