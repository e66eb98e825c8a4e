package testutil

import (
	"archive/zip"
	"bytes"
	"context"

	"3tcapital/ms_saludplus_facturas/internal/core/factura"
)

// MockLookup is a mock implementation of factura.Lookup for testing.
type MockLookup struct {
	ByKeyFunc       func(ctx context.Context, institucionID int64, clave string) (*factura.LookupResult, error)
	ByAdmissionFunc func(ctx context.Context, institucionID, idAdmision int64) (*factura.LookupResult, error)

	ByKeyCalls       int
	ByAdmissionCalls int
}

// ByKey calls the mock function if set, otherwise returns nil.
func (m *MockLookup) ByKey(ctx context.Context, institucionID int64, clave string) (*factura.LookupResult, error) {
	m.ByKeyCalls++
	if m.ByKeyFunc != nil {
		return m.ByKeyFunc(ctx, institucionID, clave)
	}
	return nil, nil
}

// ByAdmission calls the mock function if set, otherwise returns nil.
func (m *MockLookup) ByAdmission(ctx context.Context, institucionID, idAdmision int64) (*factura.LookupResult, error) {
	m.ByAdmissionCalls++
	if m.ByAdmissionFunc != nil {
		return m.ByAdmissionFunc(ctx, institucionID, idAdmision)
	}
	return nil, nil
}

var _ factura.Lookup = (*MockLookup)(nil)

// MockArchiveProvider is a mock implementation of factura.ArchiveProvider.
type MockArchiveProvider struct {
	ZipInfoFunc     func(ctx context.Context, idFactura string) (*factura.ZipInfo, error)
	DownloadZipFunc func(ctx context.Context, archiveURL string) ([]byte, error)
}

// ZipInfo calls the mock function if set, otherwise returns a failed envelope.
func (m *MockArchiveProvider) ZipInfo(ctx context.Context, idFactura string) (*factura.ZipInfo, error) {
	if m.ZipInfoFunc != nil {
		return m.ZipInfoFunc(ctx, idFactura)
	}
	return &factura.ZipInfo{}, nil
}

// DownloadZip calls the mock function if set, otherwise returns no data.
func (m *MockArchiveProvider) DownloadZip(ctx context.Context, archiveURL string) ([]byte, error) {
	if m.DownloadZipFunc != nil {
		return m.DownloadZipFunc(ctx, archiveURL)
	}
	return nil, nil
}

var _ factura.ArchiveProvider = (*MockArchiveProvider)(nil)

// BuildZip returns an in-memory ZIP archive holding the given entries.
func BuildZip(entries map[string][]byte, order ...string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	if len(order) == 0 {
		for name := range entries {
			order = append(order, name)
		}
	}
	for _, name := range order {
		f, err := w.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := f.Write(entries[name]); err != nil {
			panic(err)
		}
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
