package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zulandar/depot/internal/store"
)

// ErrNotConfigured is returned when no usable GitLab credentials can be
// resolved from any source.
var ErrNotConfigured = errors.New("gitlab is not configured")

// ValidationError reports a rejected configuration write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: invalid %s: %s", e.Field, e.Reason)
}

// Credentials is a resolved GitLab URL and access token pair.
type Credentials struct {
	URL   string
	Token string
}

// Provider yields credentials from one source. A nil result with a nil
// error means the source has nothing to offer and resolution moves on.
type Provider interface {
	Name() string
	Resolve() (*Credentials, error)
}

// Resolve walks the providers in order and returns the first usable pair
// along with the name of the provider that supplied it. Placeholder tokens
// never resolve.
func Resolve(providers ...Provider) (*Credentials, string, error) {
	for _, p := range providers {
		creds, err := p.Resolve()
		if err != nil {
			return nil, "", fmt.Errorf("config: resolve credentials from %s: %w", p.Name(), err)
		}
		if creds == nil {
			continue
		}
		if creds.URL == "" || creds.Token == "" || IsPlaceholderToken(creds.Token) {
			continue
		}
		return creds, p.Name(), nil
	}
	return nil, "", ErrNotConfigured
}

// placeholderIndicators mark tokens copied verbatim from documentation or a
// config template.
var placeholderIndicators = []string{
	"your",
	"token",
	"here",
	"xxx",
	"changeme",
	"example",
	"placeholder",
	"template",
}

// minTokenLength is shorter than any real GitLab personal access token.
const minTokenLength = 20

// IsPlaceholderToken reports whether a token is a template placeholder
// rather than a real credential.
func IsPlaceholderToken(token string) bool {
	if len(token) < minTokenLength {
		return true
	}
	lower := strings.ToLower(token)
	for _, ind := range placeholderIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

// ValidateCredentials checks a credential pair before it is written
// anywhere.
func ValidateCredentials(url, token string) error {
	if url == "" {
		return &ValidationError{Field: "gitlab_url", Reason: "must not be empty"}
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return &ValidationError{Field: "gitlab_url", Reason: "must start with http:// or https://"}
	}
	if token == "" {
		return &ValidationError{Field: "gitlab_token", Reason: "must not be empty"}
	}
	if IsPlaceholderToken(token) {
		return &ValidationError{Field: "gitlab_token", Reason: "looks like a placeholder, not a real token"}
	}
	return nil
}

// envProvider reads GITLAB_URL and GITLAB_TOKEN.
type envProvider struct{}

// FromEnv resolves credentials from the process environment.
func FromEnv() Provider { return envProvider{} }

func (envProvider) Name() string { return "environment" }

func (envProvider) Resolve() (*Credentials, error) {
	url := os.Getenv("GITLAB_URL")
	token := os.Getenv("GITLAB_TOKEN")
	if url == "" && token == "" {
		return nil, nil
	}
	return &Credentials{URL: url, Token: token}, nil
}

// fileProvider reads the gitlab section of an already loaded Config.
type fileProvider struct {
	cfg *Config
}

// FromFile resolves credentials from a loaded config file.
func FromFile(cfg *Config) Provider { return fileProvider{cfg: cfg} }

func (fileProvider) Name() string { return "config file" }

func (p fileProvider) Resolve() (*Credentials, error) {
	if p.cfg == nil || p.cfg.GitLab.URL == "" {
		return nil, nil
	}
	return &Credentials{URL: p.cfg.GitLab.URL, Token: p.cfg.GitLab.Token}, nil
}

// storeProvider reads the credential row persisted by the API or CLI.
type storeProvider struct {
	st *store.Store
}

// FromStore resolves credentials saved in the local database.
func FromStore(st *store.Store) Provider { return storeProvider{st: st} }

func (storeProvider) Name() string { return "database" }

func (p storeProvider) Resolve() (*Credentials, error) {
	if p.st == nil {
		return nil, nil
	}
	saved, err := p.st.LoadConfig()
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, nil
	}
	return &Credentials{URL: saved.GitLabURL, Token: saved.AccessToken}, nil
}

// templateProvider reads a template YAML file shipped alongside the binary.
// Its token is almost always a placeholder, which Resolve rejects; the
// provider exists so a hand-edited template still works.
type templateProvider struct {
	path string
}

// FromTemplate resolves credentials from a config template file.
func FromTemplate(path string) Provider { return templateProvider{path: path} }

func (templateProvider) Name() string { return "template" }

func (p templateProvider) Resolve() (*Credentials, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		// An unparseable template is a skipped source, not a fatal one.
		return nil, nil
	}
	if cfg.GitLab.URL == "" {
		return nil, nil
	}
	return &Credentials{URL: cfg.GitLab.URL, Token: cfg.GitLab.Token}, nil
}

// DefaultChain is the standard resolution order: environment, config file,
// stored row, template.
func DefaultChain(cfg *Config, st *store.Store, templatePath string) []Provider {
	return []Provider{FromEnv(), FromFile(cfg), FromStore(st), FromTemplate(templatePath)}
}
