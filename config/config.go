package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joshnies/survol/lib/console"
	"github.com/joshnies/survol/lib/errs"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Account and client settings for one export run.
// Every field except Storage is required.
type Config struct {
	// Account email. Also names the output files.
	Email string `yaml:"email"`
	// API service base URL, e.g. `https://api.bitwarden.com`.
	APIURL string `yaml:"api_url"`
	// Identity service base URL, e.g. `https://identity.bitwarden.com`.
	IdentityURL string `yaml:"identity_url"`
	// OAuth client credentials.
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Scope        string `yaml:"scope"`
	// Device metadata sent with the token request.
	DeviceType       string `yaml:"device_type"`
	DeviceIdentifier string `yaml:"device_identifier"`
	DeviceName       string `yaml:"device_name"`
	GrantType        string `yaml:"grant_type"`
	// Optional remote copy of the exported artifacts.
	Storage *StorageConfig `yaml:"storage,omitempty"`
}

type field struct {
	key   string
	value string
}

func (c Config) requiredFields() []field {
	return []field{
		{"email", c.Email},
		{"api_url", c.APIURL},
		{"identity_url", c.IdentityURL},
		{"client_id", c.ClientID},
		{"client_secret", c.ClientSecret},
		{"scope", c.Scope},
		{"device_type", c.DeviceType},
		{"device_identifier", c.DeviceIdentifier},
		{"device_name", c.DeviceName},
		{"grant_type", c.GrantType},
	}
}

// Returns the keys of required fields that are missing or empty.
func (c Config) MissingFields() []string {
	missing := lo.Filter(c.requiredFields(), func(f field, _ int) bool {
		return strings.TrimSpace(f.value) == ""
	})

	return lo.Map(missing, func(f field, _ int) string {
		return f.key
	})
}

// Validate config.
func (c Config) Validate() error {
	if missing := c.MissingFields(); len(missing) > 0 {
		return errs.New(errs.KindConfigParse, "missing required field(s): %s", strings.Join(missing, ", "))
	}

	// Email becomes part of the output file names
	if strings.ContainsAny(c.Email, `/\`) || strings.Contains(c.Email, "..") {
		return errs.New(errs.KindConfigParse, "\"email\" must not contain path separators or \"..\": %q", c.Email)
	}

	if c.Storage != nil {
		if err := c.Storage.Validate(); err != nil {
			return errs.Wrap(errs.KindConfigParse, err)
		}
	}

	return nil
}

// Parse config from YAML.
func Parse(data []byte) (Config, error) {
	var c Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&c); err != nil {
		// An empty document decodes to io.EOF; report the missing fields instead
		if !errors.Is(err, io.EOF) {
			return Config{}, errs.Wrap(errs.KindConfigParse, err)
		}
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	if _, err := uuid.Parse(c.DeviceIdentifier); err != nil {
		console.Warning("\"device_identifier\" is not a UUID; the identity service may reject it. Use `survol device-id` to generate one.")
	}

	return c, nil
}

// Load config from the YAML file at the given path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errs.Wrap(errs.KindConfigRead, err)
	}

	return Parse(data)
}
