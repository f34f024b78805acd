package radar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults for every run configuration field.
const (
	DefaultPersona      = "@rlm"
	DefaultSource       = "LocalLLaMA"
	DefaultTimeWindow   = "day"
	DefaultPostLimit    = 20
	DefaultCommentLimit = 3
	DefaultTopics       = "New models, local LLM use-cases"
	DefaultUserTopics   = "AI"
)

const (
	envPrefix            = "RADAR_"
	maxConfigFileSizeKiB = 256
)

// Config is the run configuration. It is resolved once per invocation and
// shared read-only by every node of that run.
type Config struct {
	// Persona is the label takes are addressed to ("Hey @rlm: ...").
	Persona string `yaml:"persona" validate:"required"`
	// Source is the subreddit to read.
	Source string `yaml:"source" validate:"required"`
	// TimeWindow is Reddit's top-posts window.
	TimeWindow string `yaml:"time_window" validate:"oneof=day week month year all"`
	// PostLimit is the number of top posts fetched.
	PostLimit int `yaml:"post_limit" validate:"gt=0,lte=100"`
	// CommentLimit is the number of top-level comments fetched per post.
	CommentLimit int `yaml:"comment_limit" validate:"gte=0"`
	// DefaultTopics are comma-joined interests merged with the user's topics.
	DefaultTopics string `yaml:"topics"`
}

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() Config {
	return Config{
		Persona:       DefaultPersona,
		Source:        DefaultSource,
		TimeWindow:    DefaultTimeWindow,
		PostLimit:     DefaultPostLimit,
		CommentLimit:  DefaultCommentLimit,
		DefaultTopics: DefaultTopics,
	}
}

// LoadConfig resolves defaults, then the YAML file at path (skipped when
// empty), then RADAR_* environment variables, and validates the result.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path != "" {
		if err := config.MergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := config.MergeEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// MergeFile overlays the keys present in a YAML file. Unknown keys are rejected.
func (c *Config) MergeFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if info.Size() > maxConfigFileSizeKiB*1024 {
		return fmt.Errorf("config: %s is larger than %d KiB", path, maxConfigFileSizeKiB)
	}

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err = decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// MergeEnv overlays non-empty RADAR_PERSONA, RADAR_SOURCE, RADAR_TIME_WINDOW,
// RADAR_POST_LIMIT, RADAR_COMMENT_LIMIT and RADAR_TOPICS values.
func (c *Config) MergeEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		value, ok := lookup(envPrefix + key)
		return value, ok && value != ""
	}

	if value, ok := get("PERSONA"); ok {
		c.Persona = value
	}
	if value, ok := get("SOURCE"); ok {
		c.Source = value
	}
	if value, ok := get("TIME_WINDOW"); ok {
		c.TimeWindow = value
	}
	if value, ok := get("TOPICS"); ok {
		c.DefaultTopics = value
	}
	for key, target := range map[string]*int{"POST_LIMIT": &c.PostLimit, "COMMENT_LIMIT": &c.CommentLimit} {
		value, ok := get(key)
		if !ok {
			continue
		}
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config: %s%s: %w", envPrefix, key, err)
		}
		*target = parsed
	}
	return nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
