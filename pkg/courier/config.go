package courier

import (
	"strings"

	"github.com/spf13/cast"
)

// Config is the flat configuration bundle every provider is constructed
// with. APIKey and BaseURL are the universal fields; anything
// provider-specific travels in Extra (e.g. a "use_mock" toggle).
type Config struct {
	APIKey  string
	BaseURL string
	Extra   map[string]any
}

// Validate checks the universal required fields. Providers that talk to a
// remote system call this before constructing; the simulation provider
// does not.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingCredential
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return ErrMissingEndpoint
	}
	return nil
}

// ExtraBool reads a boolean flag from Extra. Missing or unparseable keys
// read as false.
func (c Config) ExtraBool(key string) bool {
	return cast.ToBool(c.Extra[key])
}

// ExtraString reads a string value from Extra.
func (c Config) ExtraString(key string) string {
	return cast.ToString(c.Extra[key])
}

// ExtraInt reads an integer value from Extra.
func (c Config) ExtraInt(key string) int {
	return cast.ToInt(c.Extra[key])
}

// ExtraFloat reads a float value from Extra.
func (c Config) ExtraFloat(key string) float64 {
	return cast.ToFloat64(c.Extra[key])
}
