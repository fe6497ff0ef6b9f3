package publish

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// ManifestName is the object written last under every published run.
const ManifestName = "manifest.json"

// ObjectStore is the subset of bucket operations the publisher needs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64) error
	List(ctx context.Context, prefix string) ([]types.Object, error)
	Delete(ctx context.Context, key string) error
}

// Manifest describes one published run
type Manifest struct {
	RunID       string         `json:"run_id"`
	PublishedAt time.Time      `json:"published_at"`
	Files       []FileMetadata `json:"files"`
}

// FileMetadata describes one uploaded artifact
type FileMetadata struct {
	Name      string `json:"name"`
	Key       string `json:"key"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// PublishedRun is a run found in the bucket
type PublishedRun struct {
	RunID       string    `json:"run_id"`
	ManifestKey string    `json:"manifest_key"`
	PublishedAt time.Time `json:"published_at"`
}

// Publisher uploads run artifacts under <prefix>/<run id>/<file name>.
type Publisher struct {
	store  ObjectStore
	prefix string
	log    zerolog.Logger
	now    func() time.Time
}

// NewPublisher creates a new publisher
func NewPublisher(store ObjectStore, prefix string, log zerolog.Logger) *Publisher {
	return &Publisher{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		log:    log.With().Str("service", "publish").Logger(),
		now:    time.Now,
	}
}

// Key returns the object key of name within run.
func (p *Publisher) Key(runID, name string) string {
	if p.prefix == "" {
		return path.Join(runID, name)
	}
	return path.Join(p.prefix, runID, name)
}

// Publish uploads files, then a manifest listing them with their checksums.
func (p *Publisher) Publish(ctx context.Context, runID string, files []string) (Manifest, error) {
	if runID == "" {
		return Manifest{}, fmt.Errorf("run id is required")
	}
	startTime := time.Now()

	manifest := Manifest{
		RunID: runID,
		Files: make([]FileMetadata, 0, len(files)),
	}

	for _, file := range files {
		meta, err := p.uploadFile(ctx, runID, file)
		if err != nil {
			return Manifest{}, err
		}
		manifest.Files = append(manifest.Files, meta)
	}

	manifest.PublishedAt = p.now().UTC()
	body, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to encode manifest: %w", err)
	}
	key := p.Key(runID, ManifestName)
	if err := p.store.Upload(ctx, key, bytes.NewReader(body), int64(len(body))); err != nil {
		return Manifest{}, fmt.Errorf("failed to upload manifest: %w", err)
	}

	p.log.Info().
		Str("run_id", runID).
		Int("files", len(manifest.Files)).
		Dur("duration_ms", time.Since(startTime)).
		Msg("Published run artifacts")

	return manifest, nil
}

func (p *Publisher) uploadFile(ctx context.Context, runID, file string) (FileMetadata, error) {
	checksum, err := calculateChecksum(file)
	if err != nil {
		return FileMetadata{}, fmt.Errorf("failed to calculate checksum for %s: %w", file, err)
	}

	f, err := os.Open(file)
	if err != nil {
		return FileMetadata{}, fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return FileMetadata{}, fmt.Errorf("failed to stat %s: %w", file, err)
	}

	name := filepath.Base(file)
	key := p.Key(runID, name)
	if err := p.store.Upload(ctx, key, f, info.Size()); err != nil {
		return FileMetadata{}, err
	}

	return FileMetadata{
		Name:      name,
		Key:       key,
		SizeBytes: info.Size(),
		Checksum:  checksum,
	}, nil
}

// ListPublished returns runs that have a manifest, newest first.
func (p *Publisher) ListPublished(ctx context.Context) ([]PublishedRun, error) {
	prefix := ""
	if p.prefix != "" {
		prefix = p.prefix + "/"
	}

	objects, err := p.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list published runs: %w", err)
	}

	runs := make([]PublishedRun, 0)
	for _, obj := range objects {
		if obj.Key == nil {
			continue
		}
		key := *obj.Key
		rest := strings.TrimPrefix(key, prefix)
		runID, name, ok := strings.Cut(rest, "/")
		if !ok || name != ManifestName || runID == "" {
			continue
		}

		run := PublishedRun{RunID: runID, ManifestKey: key}
		if obj.LastModified != nil {
			run.PublishedAt = *obj.LastModified
		}
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].PublishedAt.After(runs[j].PublishedAt)
	})
	return runs, nil
}

// Unpublish deletes every object of a run, manifest first.
func (p *Publisher) Unpublish(ctx context.Context, runID string) (int, error) {
	if runID == "" {
		return 0, fmt.Errorf("run id is required")
	}

	objects, err := p.store.List(ctx, p.Key(runID, "")+"/")
	if err != nil {
		return 0, fmt.Errorf("failed to list run %s: %w", runID, err)
	}

	manifestKey := p.Key(runID, ManifestName)
	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].Key != nil && *objects[i].Key == manifestKey
	})

	deleted := 0
	for _, obj := range objects {
		if obj.Key == nil {
			continue
		}
		if err := p.store.Delete(ctx, *obj.Key); err != nil {
			return deleted, err
		}
		deleted++
	}

	p.log.Info().Str("run_id", runID).Int("deleted", deleted).Msg("Unpublished run")
	return deleted, nil
}

// calculateChecksum calculates SHA256 checksum of a file
func calculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}
