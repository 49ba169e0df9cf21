// artifacts.go — Exported DP images on local disk or Google Drive.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

var extByMIME = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
}

// LocalArtifactStore writes artifacts as <uuid>.<ext> under a directory.
type LocalArtifactStore struct {
	dir string
}

func NewLocalArtifactStore(dir string) (*LocalArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &LocalArtifactStore{dir: dir}, nil
}

func (s *LocalArtifactStore) Save(_ context.Context, mime string, data []byte) (string, error) {
	ext, ok := extByMIME[mime]
	if !ok {
		return "", fmt.Errorf("unsupported artifact type %q", mime)
	}
	id := uuid.NewString()
	if err := os.WriteFile(filepath.Join(s.dir, id+ext), data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	logger().Info("artifact saved", "id", id, "mime", mime, "bytes", len(data))
	return id, nil
}

func (s *LocalArtifactStore) Open(_ context.Context, id string) ([]byte, string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, "", fmt.Errorf("artifact %s: %w", id, ErrNotFound)
	}
	for mime, ext := range extByMIME {
		data, err := os.ReadFile(filepath.Join(s.dir, id+ext))
		if err == nil {
			return data, mime, nil
		}
		if !os.IsNotExist(err) {
			return nil, "", fmt.Errorf("read artifact: %w", err)
		}
	}
	return nil, "", fmt.Errorf("artifact %s: %w", id, ErrNotFound)
}

// DriveArtifactStore uploads artifacts into a Google Drive folder using a
// service account.
type DriveArtifactStore struct {
	client   *drive.Service
	folderID string
}

// NewDriveArtifactStore authenticates with the service account JSON at
// credentialsPath.
func NewDriveArtifactStore(ctx context.Context, credentialsPath, folderID string) (*DriveArtifactStore, error) {
	driveService, err := drive.NewService(ctx, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &DriveArtifactStore{client: driveService, folderID: folderID}, nil
}

func (s *DriveArtifactStore) Save(ctx context.Context, mime string, data []byte) (string, error) {
	ext, ok := extByMIME[mime]
	if !ok {
		return "", fmt.Errorf("unsupported artifact type %q", mime)
	}
	meta := &drive.File{
		Name:     "dp-" + uuid.NewString() + ext,
		MimeType: mime,
	}
	if s.folderID != "" {
		meta.Parents = []string{s.folderID}
	}

	f, err := s.client.Files.Create(meta).Media(bytes.NewReader(data)).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("upload artifact: %w", err)
	}
	logger().Info("artifact uploaded", "id", f.Id, "mime", mime, "bytes", len(data))
	return f.Id, nil
}

func (s *DriveArtifactStore) Open(ctx context.Context, id string) ([]byte, string, error) {
	f, err := s.client.Files.Get(id).Fields("mimeType").Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return nil, "", fmt.Errorf("artifact %s: %w", id, ErrNotFound)
		}
		return nil, "", fmt.Errorf("get artifact: %w", err)
	}

	resp, err := s.client.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, "", fmt.Errorf("download artifact: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read artifact: %w", err)
	}
	return data, f.MimeType, nil
}
