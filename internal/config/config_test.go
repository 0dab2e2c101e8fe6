package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config", "test.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

const validYAML = `
http:
  port: 8080
database:
  addrs: ["localhost:6379"]
auth:
  jwt_secret: test-secret
acts:
  - id: mva
    name: The Motor Vehicles Act, 1988
    description: Regulates road transport, licensing, registration, and penalties.
`

func TestLoad_Valid(t *testing.T) {
	writeConfig(t, validYAML)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.HTTP.Port)
	}
	if len(cfg.Acts) != 1 || cfg.Acts[0].ID != "mva" {
		t.Errorf("unexpected acts: %+v", cfg.Acts)
	}
}

func TestLoad_Defaults(t *testing.T) {
	writeConfig(t, validYAML)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RAG.TopK != 3 {
		t.Errorf("rag.top_k default = %d, want 3", cfg.RAG.TopK)
	}
	if cfg.RAG.MaxConcurrency != 6 {
		t.Errorf("rag.max_concurrency default = %d, want 6", cfg.RAG.MaxConcurrency)
	}
	if cfg.RAG.MaxRetries == nil || *cfg.RAG.MaxRetries != 2 {
		t.Errorf("rag.max_retries default = %v, want 2", cfg.RAG.MaxRetries)
	}
	if cfg.RAG.SessionWindowMin != 60 {
		t.Errorf("rag.session_window_min default = %d, want 60", cfg.RAG.SessionWindowMin)
	}
	if cfg.Storage.KeyPrefix != "nyaya:" {
		t.Errorf("storage.key_prefix default = %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Auth.TokenTTLMin != 24*60 {
		t.Errorf("auth.token_ttl_min default = %d", cfg.Auth.TokenTTLMin)
	}
}

func TestLoad_ZeroRetriesPreserved(t *testing.T) {
	writeConfig(t, validYAML+`
rag:
  max_retries: 0
`)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RAG.MaxRetries == nil || *cfg.RAG.MaxRetries != 0 {
		t.Errorf("rag.max_retries = %v, explicit zero must survive defaults", cfg.RAG.MaxRetries)
	}
}

func TestLoad_DocActs(t *testing.T) {
	writeConfig(t, validYAML+`
doc_acts:
  - id: ica
    name: The Indian Contract Act, 1872
    description: Formation and enforcement of contracts.
  - id: rti
    name: The Right to Information Act, 2005
    description: Requesting information from public authorities.
`)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.DocActs) != 2 || cfg.DocActs[0].ID != "ica" || cfg.DocActs[1].ID != "rti" {
		t.Errorf("unexpected doc_acts: %+v", cfg.DocActs)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_JWT_SECRET", "from-env")
	writeConfig(t, `
http:
  port: 8080
database:
  addrs: ["localhost:6379"]
auth:
  jwt_secret: ${TEST_JWT_SECRET}
acts:
  - id: mva
    name: MVA
    description: road transport
`)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Errorf("jwt_secret = %q, want from-env", cfg.Auth.JWTSecret)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		c := Config{
			HTTP:     HTTPConfig{Port: 8080},
			Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
			Auth:     AuthConfig{JWTSecret: "s"},
			Acts: []ActConfig{
				{ID: "mva", Name: "MVA", Description: "road transport"},
			},
		}
		c.ApplyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.HTTP.Port = 0 }, wantErr: true},
		{name: "no db addrs", mutate: func(c *Config) { c.Database.Addrs = nil }, wantErr: true},
		{name: "no jwt secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: true},
		{name: "no acts", mutate: func(c *Config) { c.Acts = nil }, wantErr: true},
		{name: "act without id", mutate: func(c *Config) { c.Acts[0].ID = "" }, wantErr: true},
		{name: "act without description", mutate: func(c *Config) { c.Acts[0].Description = "" }, wantErr: true},
		{
			name: "duplicate act ids",
			mutate: func(c *Config) {
				c.Acts = append(c.Acts, ActConfig{ID: "mva", Name: "dup", Description: "dup"})
			},
			wantErr: true,
		},
		{
			name: "doc act without description",
			mutate: func(c *Config) {
				c.DocActs = []ActConfig{{ID: "ica", Name: "ICA"}}
			},
			wantErr: true,
		},
		{
			name: "doc act id colliding with chat act",
			mutate: func(c *Config) {
				c.DocActs = []ActConfig{{ID: "mva", Name: "dup", Description: "dup"}}
			},
			wantErr: true,
		},
		{
			name:    "negative max retries",
			mutate:  func(c *Config) { n := -1; c.RAG.MaxRetries = &n },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv() = %q, want local", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv() = %q, want prod", got)
	}
}
