package factura

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"3tcapital/ms_saludplus_facturas/internal/core/factura"
	ctxutil "3tcapital/ms_saludplus_facturas/internal/infrastructure/context"
)

// Document is the PDF entry selected from an invoice archive.
type Document struct {
	Filename string
	Size     uint64
	entry    *zip.File
}

// Open returns a reader over the uncompressed PDF bytes.
func (d *Document) Open() (io.ReadCloser, error) {
	return d.entry.Open()
}

// DocumentService fetches the invoice archive and selects its PDF.
type DocumentService struct {
	provider factura.ArchiveProvider
	log      *slog.Logger
}

// NewDocumentService creates a document service.
func NewDocumentService(provider factura.ArchiveProvider, log *slog.Logger) *DocumentService {
	return &DocumentService{provider: provider, log: log}
}

// Fetch retrieves the archive of the resolved invoice and returns its first
// PDF entry named after the insurer convention.
func (s *DocumentService) Fetch(ctx context.Context, res *factura.Resolution, eps string) (*Document, error) {
	if s.provider == nil {
		return nil, factura.InternalError("proveedor de archivos no configurado", nil)
	}
	correlationID := ctxutil.GetCorrelationID(ctx)

	info, err := s.provider.ZipInfo(ctx, res.IDFactura)
	if err != nil {
		if errors.Is(err, factura.ErrUpstreamResponse) {
			return nil, factura.UpstreamError("no se pudo obtener la información de la factura", err)
		}
		return nil, factura.TransportError("no se pudo obtener la información de la factura", err)
	}
	if info == nil || info.ValorRetorno != 1 {
		return nil, factura.UpstreamError("no se pudo obtener la información de la factura", nil)
	}
	if strings.TrimSpace(info.Archivo) == "" {
		return nil, factura.UpstreamError("no se encontró la URL del archivo", nil)
	}

	filename := factura.PDFFilename(eps, res.NitInstitucion, res.NumeroFactura, res.IDFactura)

	data, err := s.provider.DownloadZip(ctx, info.Archivo)
	if err != nil {
		return nil, factura.TransportError("no se pudo descargar el ZIP", err)
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, factura.TransportError("no se pudo procesar el ZIP", err)
	}

	for _, f := range archive.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".pdf") {
			s.log.Info("invoice pdf located",
				"correlation_id", correlationID,
				"id_factura", res.IDFactura,
				"entry", f.Name,
				"filename", filename,
				"zip_bytes", len(data),
			)
			return &Document{Filename: filename, Size: f.UncompressedSize64, entry: f}, nil
		}
	}

	return nil, factura.UpstreamError("el ZIP no contiene ningún PDF", nil)
}
