// Package config loads the medimate configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// validName matches alphanumeric, hyphens, and single underscores.
// Double underscores are reserved as the namespace separator.
var validName = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// Config is the top-level medimate configuration loaded from JSON.
type Config struct {
	Model        ModelConfig        `json:"model"`
	Assistant    AssistantConfig    `json:"assistant"`
	Tools        ToolsConfig        `json:"tools"`
	Toolboxes    []ToolboxConfig    `json:"toolboxes,omitempty"`
	Sanitization SanitizationConfig `json:"sanitization"`
	Console      ConsoleConfig      `json:"console"`
	Web          WebConfig          `json:"web"`
	MCP          MCPConfig          `json:"mcp"`
	Store        StoreConfig        `json:"store"`
	Evaluation   EvaluationConfig   `json:"evaluation"`
}

// ModelConfig selects the hosted chat model.
type ModelConfig struct {
	ID             string  `json:"id"`
	BaseURL        string  `json:"baseURL,omitempty"` // OpenAI-compatible endpoint, Groq when empty
	APIKeyEnv      string  `json:"apiKeyEnv"`
	Temperature    float32 `json:"temperature,omitempty"`
	TimeoutSeconds int     `json:"timeoutSeconds"`
}

// APIKey reads the model API key from the configured environment variable.
func (m ModelConfig) APIKey() string {
	return os.Getenv(m.APIKeyEnv)
}

// AssistantConfig shapes the assistant's answers.
type AssistantConfig struct {
	Profile       string   `json:"profile"` // "otc" or "ayurvedic"
	Instructions  []string `json:"instructions,omitempty"`
	Markdown      *bool    `json:"markdown,omitempty"`
	MaxIterations int      `json:"maxIterations"`
	MaxToolOutput int      `json:"maxToolOutput"`
}

// ToolsConfig enables the built-in knowledge tools.
type ToolsConfig struct {
	Wikipedia    *bool               `json:"wikipedia,omitempty"`
	DuckDuckGo   *bool               `json:"duckduckgo,omitempty"`
	MaxResults   int                 `json:"maxResults"`
	Sanitization *SanitizationConfig `json:"sanitization,omitempty"`
}

// ToolboxConfig defines an external MCP server whose tools the assistant
// may call.
type ToolboxConfig struct {
	Name         string              `json:"name"`
	Transport    string              `json:"transport"` // "stdio" or "http"
	Command      []string            `json:"command,omitempty"`
	URL          string              `json:"url,omitempty"`
	Sanitization *SanitizationConfig `json:"sanitization,omitempty"`
}

// SanitizationConfig controls the pipeline applied to tool results.
// When used at the root level it provides global defaults.
// When used per toolbox, non-nil fields override the global.
type SanitizationConfig struct {
	MaxResponseChars               *int     `json:"maxResponseChars,omitempty"`
	EnableTerminalCleanup          *bool    `json:"enableTerminalCleanup,omitempty"`
	EnablePromptInjectionDetection *bool    `json:"enablePromptInjectionDetection,omitempty"`
	EnableInvisibleTextRemoval     *bool    `json:"enableInvisibleTextRemoval,omitempty"`
	EnableURLValidation            *bool    `json:"enableURLValidation,omitempty"`
	EnableBoundaryInjection        *bool    `json:"enableBoundaryInjection,omitempty"`
	EnableSystemOverrideDetection  *bool    `json:"enableSystemOverrideDetection,omitempty"`
	DisableBuiltInPatterns         *bool    `json:"disableBuiltInPatterns,omitempty"`
	CustomInjectionPatterns        []string `json:"customInjectionPatterns,omitempty"`
}

// ConsoleConfig controls the framed terminal rendering.
type ConsoleConfig struct {
	Width         int   `json:"width"`
	Color         *bool `json:"color,omitempty"`
	ShowToolCalls *bool `json:"showToolCalls,omitempty"`
}

// WebConfig holds the web chat settings.
type WebConfig struct {
	Addr            string `json:"addr"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Profile         string `json:"profile"`
	AmbulanceNumber string `json:"ambulanceNumber"`
	DietPlanURL     string `json:"dietPlanURL"`
	ImmunityURL     string `json:"immunityURL"`
}

// MCPConfig controls how MCP clients reach medimate's own tools.
type MCPConfig struct {
	Transport string     `json:"transport"` // "stdio" or "http"
	HTTP      HTTPConfig `json:"http"`
}

// HTTPConfig holds HTTP listener settings.
type HTTPConfig struct {
	Addr string `json:"addr"` // e.g. ":8090"
	Path string `json:"path"` // e.g. "/mcp"
}

// StoreConfig locates the chat history database. An empty path keeps
// conversations in memory.
type StoreConfig struct {
	Path string `json:"path,omitempty"`
}

// EvaluationConfig tunes the accuracy harness.
type EvaluationConfig struct {
	Parallelism int `json:"parallelism"`
}

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"

	// BuiltinToolbox names the in-process knowledge toolbox.
	BuiltinToolbox = "builtin"

	DefaultModelID          = "llama-3.1-8b-instant"
	DefaultAPIKeyEnv        = "GROQ_API_KEY"
	DefaultModelTimeout     = 60
	DefaultProfile          = "otc"
	DefaultWebProfile       = "ayurvedic"
	DefaultMaxIterations    = 6
	DefaultMaxToolOutput    = 8000
	DefaultMaxResults       = 5
	DefaultMaxResponseChars = 16000
	DefaultConsoleWidth     = 80
	DefaultWebAddr          = ":8501"
	DefaultHTTPAddr         = ":8090"
	DefaultHTTPPath         = "/mcp"
	DefaultParallelism      = 1

	DefaultWebTitle       = "Ayurvedic Medicine AI Chatbot"
	DefaultWebDescription = "Enter your symptoms, and get Ayurvedic medicine recommendations as bullet points."
	DefaultAmbulance      = "108"
	DefaultDietPlanURL    = "https://www.healthline.com/nutrition/best-diet-plans"
	DefaultImmunityURL    = "https://www.health.harvard.edu/staying-healthy/how-to-boost-your-immune-system"

	fileName = "medimate.json"
)

// Load reads and parses a JSON config file, applies defaults, and validates.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

// SearchPaths lists where LoadDefault looks for a config file, in order.
func SearchPaths() []string {
	paths := []string{fileName}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".medimate", "config.json"))
	}
	return paths
}

// LoadDefault loads the first config file found on SearchPaths and falls
// back to Default when there is none. The returned path is empty when no
// file was read.
func LoadDefault() (Config, string, error) {
	for _, p := range SearchPaths() {
		cfg, err := Load(p)
		if err == nil {
			return cfg, p, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, p, err
		}
	}
	return Default(), "", nil
}

func applyDefaults(cfg *Config) {
	if cfg.Model.ID == "" {
		cfg.Model.ID = DefaultModelID
	}
	if cfg.Model.APIKeyEnv == "" {
		cfg.Model.APIKeyEnv = DefaultAPIKeyEnv
	}
	if cfg.Model.TimeoutSeconds == 0 {
		cfg.Model.TimeoutSeconds = DefaultModelTimeout
	}

	if cfg.Assistant.Profile == "" {
		cfg.Assistant.Profile = DefaultProfile
	}
	if cfg.Assistant.Markdown == nil {
		cfg.Assistant.Markdown = boolPtr(true)
	}
	if cfg.Assistant.MaxIterations == 0 {
		cfg.Assistant.MaxIterations = DefaultMaxIterations
	}
	if cfg.Assistant.MaxToolOutput == 0 {
		cfg.Assistant.MaxToolOutput = DefaultMaxToolOutput
	}

	if cfg.Tools.Wikipedia == nil {
		cfg.Tools.Wikipedia = boolPtr(true)
	}
	if cfg.Tools.DuckDuckGo == nil {
		cfg.Tools.DuckDuckGo = boolPtr(true)
	}
	if cfg.Tools.MaxResults == 0 {
		cfg.Tools.MaxResults = DefaultMaxResults
	}

	if cfg.Sanitization.MaxResponseChars == nil {
		cfg.Sanitization.MaxResponseChars = intPtr(DefaultMaxResponseChars)
	}
	if cfg.Sanitization.EnableTerminalCleanup == nil {
		cfg.Sanitization.EnableTerminalCleanup = boolPtr(true)
	}
	if cfg.Sanitization.EnablePromptInjectionDetection == nil {
		cfg.Sanitization.EnablePromptInjectionDetection = boolPtr(true)
	}
	if cfg.Sanitization.EnableInvisibleTextRemoval == nil {
		cfg.Sanitization.EnableInvisibleTextRemoval = boolPtr(true)
	}
	if cfg.Sanitization.EnableURLValidation == nil {
		cfg.Sanitization.EnableURLValidation = boolPtr(true)
	}
	if cfg.Sanitization.EnableBoundaryInjection == nil {
		cfg.Sanitization.EnableBoundaryInjection = boolPtr(true)
	}
	if cfg.Sanitization.EnableSystemOverrideDetection == nil {
		cfg.Sanitization.EnableSystemOverrideDetection = boolPtr(true)
	}
	if cfg.Sanitization.DisableBuiltInPatterns == nil {
		cfg.Sanitization.DisableBuiltInPatterns = boolPtr(false)
	}

	if cfg.Console.Width == 0 {
		cfg.Console.Width = DefaultConsoleWidth
	}
	if cfg.Console.Color == nil {
		cfg.Console.Color = boolPtr(true)
	}
	if cfg.Console.ShowToolCalls == nil {
		cfg.Console.ShowToolCalls = boolPtr(true)
	}

	if cfg.Web.Addr == "" {
		cfg.Web.Addr = DefaultWebAddr
	}
	if cfg.Web.Title == "" {
		cfg.Web.Title = DefaultWebTitle
	}
	if cfg.Web.Description == "" {
		cfg.Web.Description = DefaultWebDescription
	}
	if cfg.Web.Profile == "" {
		cfg.Web.Profile = DefaultWebProfile
	}
	if cfg.Web.AmbulanceNumber == "" {
		cfg.Web.AmbulanceNumber = DefaultAmbulance
	}
	if cfg.Web.DietPlanURL == "" {
		cfg.Web.DietPlanURL = DefaultDietPlanURL
	}
	if cfg.Web.ImmunityURL == "" {
		cfg.Web.ImmunityURL = DefaultImmunityURL
	}

	if cfg.MCP.Transport == "" {
		cfg.MCP.Transport = TransportStdio
	}
	if cfg.MCP.HTTP.Addr == "" {
		cfg.MCP.HTTP.Addr = DefaultHTTPAddr
	}
	if cfg.MCP.HTTP.Path == "" {
		cfg.MCP.HTTP.Path = DefaultHTTPPath
	}

	if cfg.Evaluation.Parallelism == 0 {
		cfg.Evaluation.Parallelism = DefaultParallelism
	}
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.Model.ID) == "" {
		return fmt.Errorf("model.id is required")
	}
	if cfg.Model.TimeoutSeconds < 0 {
		return fmt.Errorf("model.timeoutSeconds must not be negative, got %d", cfg.Model.TimeoutSeconds)
	}
	if cfg.Assistant.MaxIterations < 0 {
		return fmt.Errorf("assistant.maxIterations must not be negative, got %d", cfg.Assistant.MaxIterations)
	}
	if cfg.Tools.MaxResults < 0 {
		return fmt.Errorf("tools.maxResults must not be negative, got %d", cfg.Tools.MaxResults)
	}
	if cfg.Console.Width < 0 {
		return fmt.Errorf("console.width must not be negative, got %d", cfg.Console.Width)
	}
	if cfg.Evaluation.Parallelism < 1 {
		return fmt.Errorf("evaluation.parallelism must be at least 1, got %d", cfg.Evaluation.Parallelism)
	}

	if cfg.MCP.Transport != TransportStdio && cfg.MCP.Transport != TransportHTTP {
		return fmt.Errorf("mcp transport must be %q or %q, got %q",
			TransportStdio, TransportHTTP, cfg.MCP.Transport)
	}

	names := make(map[string]struct{}, len(cfg.Toolboxes))
	for i, tb := range cfg.Toolboxes {
		if tb.Name == "" {
			return fmt.Errorf("toolboxes[%d]: name is required", i)
		}
		if !validName.MatchString(tb.Name) {
			return fmt.Errorf("toolboxes[%d]: name %q must match %s", i, tb.Name, validName.String())
		}
		if strings.Contains(tb.Name, "__") {
			return fmt.Errorf("toolboxes[%d]: name %q must not contain \"__\" (reserved separator)", i, tb.Name)
		}
		if tb.Name == BuiltinToolbox {
			return fmt.Errorf("toolboxes[%d]: name %q is reserved", i, tb.Name)
		}
		if _, exists := names[tb.Name]; exists {
			return fmt.Errorf("toolboxes[%d]: duplicate name %q", i, tb.Name)
		}
		names[tb.Name] = struct{}{}

		if tb.Transport != TransportStdio && tb.Transport != TransportHTTP {
			return fmt.Errorf("toolboxes[%d] (%s): transport must be %q or %q, got %q",
				i, tb.Name, TransportStdio, TransportHTTP, tb.Transport)
		}

		if tb.Transport == TransportStdio && len(tb.Command) == 0 {
			return fmt.Errorf("toolboxes[%d] (%s): command is required for stdio transport", i, tb.Name)
		}

		if tb.Transport == TransportHTTP && tb.URL == "" {
			return fmt.Errorf("toolboxes[%d] (%s): url is required for http transport", i, tb.Name)
		}
	}

	if err := validatePatterns("sanitization", &cfg.Sanitization); err != nil {
		return err
	}
	if err := validatePatterns("tools.sanitization", cfg.Tools.Sanitization); err != nil {
		return err
	}
	for i, tb := range cfg.Toolboxes {
		if err := validatePatterns(fmt.Sprintf("toolboxes[%d] (%s) sanitization", i, tb.Name), tb.Sanitization); err != nil {
			return err
		}
	}

	return nil
}

// validatePatterns checks custom injection patterns are valid regexes.
func validatePatterns(field string, sc *SanitizationConfig) error {
	if sc == nil {
		return nil
	}
	for i, pattern := range sc.CustomInjectionPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("%s.customInjectionPatterns[%d]: invalid regex %q: %w", field, i, pattern, err)
		}
	}
	return nil
}

// Merge returns a SanitizationConfig with per-toolbox overrides applied on
// top of global defaults. Fields that are nil in the override use the global value.
func Merge(global, override *SanitizationConfig) SanitizationConfig {
	if override == nil {
		return *global
	}

	merged := *global

	if override.MaxResponseChars != nil {
		merged.MaxResponseChars = override.MaxResponseChars
	}
	if override.EnableTerminalCleanup != nil {
		merged.EnableTerminalCleanup = override.EnableTerminalCleanup
	}
	if override.EnablePromptInjectionDetection != nil {
		merged.EnablePromptInjectionDetection = override.EnablePromptInjectionDetection
	}
	if override.EnableInvisibleTextRemoval != nil {
		merged.EnableInvisibleTextRemoval = override.EnableInvisibleTextRemoval
	}
	if override.EnableURLValidation != nil {
		merged.EnableURLValidation = override.EnableURLValidation
	}
	if override.EnableBoundaryInjection != nil {
		merged.EnableBoundaryInjection = override.EnableBoundaryInjection
	}
	if override.EnableSystemOverrideDetection != nil {
		merged.EnableSystemOverrideDetection = override.EnableSystemOverrideDetection
	}
	if override.DisableBuiltInPatterns != nil {
		merged.DisableBuiltInPatterns = override.DisableBuiltInPatterns
	}
	if len(override.CustomInjectionPatterns) > 0 {
		merged.CustomInjectionPatterns = override.CustomInjectionPatterns
	}

	return merged
}

// Enabled dereferences an optional flag, treating nil as false.
func Enabled(b *bool) bool {
	return b != nil && *b
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }
