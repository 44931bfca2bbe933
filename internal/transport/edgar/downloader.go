package edgar

import (
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tenqd/internal/domain/filing"
)

// artifactStore is the consumer interface for persisted filing documents.
type artifactStore interface {
	Exists(relPath string) bool
	Write(relPath string, data []byte) (string, error)
	Read(relPath string) ([]byte, error)
}

// textFetcher is the consumer interface the downloader needs from the client.
type textFetcher interface {
	GetText(ctx context.Context, url string) ([]byte, error)
}

// Downloader fetches primary filing documents from the EDGAR archives
// and persists them through an artifact store. Downloads are idempotent:
// an artifact already on disk is never fetched again.
type Downloader struct {
	client       textFetcher
	store        artifactStore
	archivesBase string
	logger       *zap.Logger
}

// NewDownloader creates a filing downloader.
func NewDownloader(client textFetcher, store artifactStore, archivesBase string, logger *zap.Logger) *Downloader {
	return &Downloader{
		client:       client,
		store:        store,
		archivesBase: strings.TrimRight(archivesBase, "/"),
		logger:       logger,
	}
}

// FetchPrimary returns the primary document bytes for a filing,
// downloading and persisting them on first access.
func (d *Downloader) FetchPrimary(ctx context.Context, desc filing.Descriptor) ([]byte, error) {
	rel := relPath(desc)

	if d.store.Exists(rel) {
		d.logger.Debug("Filing artifact already on disk", zap.String("path", rel))
		return d.store.Read(rel)
	}

	url := d.primaryURL(desc)
	data, err := d.client.GetText(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", desc.AccessionNumber(), err)
	}

	if _, err := d.store.Write(rel, data); err != nil {
		return nil, fmt.Errorf("persist %s: %w", desc.AccessionNumber(), err)
	}

	d.logger.Info("Downloaded filing artifact",
		zap.String("ticker", desc.Ticker()),
		zap.String("accession", desc.AccessionNumber()),
		zap.Int("bytes", len(data)))
	return data, nil
}

// primaryURL builds the archives URL: CIK without leading zeros,
// accession without dashes, then the document filename.
func (d *Downloader) primaryURL(desc filing.Descriptor) string {
	cik := strings.TrimLeft(desc.CIK(), "0")
	accession := strings.ReplaceAll(desc.AccessionNumber(), "-", "")
	return d.archivesBase + "/" + path.Join(cik, accession, desc.PrimaryDocument())
}

func relPath(desc filing.Descriptor) string {
	return path.Join("filings",
		desc.Ticker(), desc.CIK(), desc.FormType(),
		desc.AccessionNumber(), desc.PrimaryDocument())
}
