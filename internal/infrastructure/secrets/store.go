package secrets

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"3tcapital/ms_saludplus_facturas/internal/core/credential"
)

// Settings locates the institution credential file.
type Settings struct {
	CredentialsFile string `envconfig:"SALUDPLUS_CREDENTIALS_FILE"`
	Required        bool   `envconfig:"SALUDPLUS_CREDENTIALS_REQUIRED" default:"false"`
}

// Store is an immutable credential.Store loaded at startup.
type Store struct {
	credentials map[string]credential.Credential
	ids         []string
}

// credentialFile is the on-disk layout:
//
//	institutions:
//	  "14":
//	    nombre: TOLUVIEJO
//	    data: <opaque blob>
type credentialFile struct {
	Institutions map[string]credential.Credential `mapstructure:"institutions"`
}

// LoadFromEnv reads Settings from the environment and loads the file they
// point to. Without a file the store is empty unless credentials are required.
func LoadFromEnv() (*Store, error) {
	var settings Settings
	if err := envconfig.Process("", &settings); err != nil {
		return nil, fmt.Errorf("process secrets settings: %w", err)
	}
	if strings.TrimSpace(settings.CredentialsFile) == "" {
		if settings.Required {
			return nil, fmt.Errorf("SALUDPLUS_CREDENTIALS_FILE is required")
		}
		return NewStore(nil), nil
	}
	return Load(settings.CredentialsFile)
}

// Load reads a YAML, JSON or TOML credential file.
func Load(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	var file credentialFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("decode credentials file: %w", err)
	}

	for id, c := range file.Institutions {
		if strings.TrimSpace(c.Data) == "" {
			return nil, fmt.Errorf("credentials file: institution %s has no data", id)
		}
	}
	return NewStore(file.Institutions), nil
}

// NewStore builds a store from an in-memory map.
func NewStore(credentials map[string]credential.Credential) *Store {
	s := &Store{credentials: make(map[string]credential.Credential, len(credentials))}
	for id, c := range credentials {
		id = strings.TrimSpace(id)
		s.credentials[id] = credential.Credential{
			Name: strings.TrimSpace(c.Name),
			Data: strings.TrimSpace(c.Data),
		}
		s.ids = append(s.ids, id)
	}
	credential.SortIDs(s.ids)
	return s
}

// Get returns the credential of institucionID.
func (s *Store) Get(institucionID string) (credential.Credential, bool) {
	c, ok := s.credentials[strings.TrimSpace(institucionID)]
	return c, ok
}

// IDs returns the known institution IDs, integers in numeric order first.
func (s *Store) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of institutions.
func (s *Store) Len() int {
	return len(s.ids)
}

var _ credential.Store = (*Store)(nil)
