package testutil

import "3tcapital/ms_saludplus_facturas/internal/core/credential"

// StaticCredentialStore is an in-memory credential.Store.
type StaticCredentialStore map[string]credential.Credential

// Get returns the credential for institucionID.
func (s StaticCredentialStore) Get(institucionID string) (credential.Credential, bool) {
	c, ok := s[institucionID]
	return c, ok
}

// IDs returns the known institution IDs sorted.
func (s StaticCredentialStore) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	credential.SortIDs(ids)
	return ids
}

var _ credential.Store = StaticCredentialStore(nil)
