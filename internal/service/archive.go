package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/mehubot/mehu/internal/model"
	"github.com/mehubot/mehu/internal/storage"
	"github.com/mehubot/mehu/internal/telegram"
)

// maxArchiveSize matches the Bot API download limit.
const maxArchiveSize = 20 << 20

// FileFetcher resolves and downloads files by their Telegram file id.
type FileFetcher interface {
	GetFile(ctx context.Context, fileID string) (*telegram.File, error)
	DownloadFile(ctx context.Context, filePath string) (io.ReadCloser, error)
}

// ArchiveService mirrors uploaded media into object storage.
type ArchiveService struct {
	files   FileFetcher
	storage storage.Storage
}

func NewArchiveService(files FileFetcher, storage storage.Storage) *ArchiveService {
	return &ArchiveService{
		files:   files,
		storage: storage,
	}
}

// Archive copies media into storage under "<kind>/<media id><ext>" and returns the key.
func (s *ArchiveService) Archive(ctx context.Context, media *model.Media) (string, error) {
	file, err := s.files.GetFile(ctx, media.FileID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file: %w", err)
	}

	body, err := s.files.DownloadFile(ctx, file.FilePath)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	defer body.Close()

	// Buffered so the upload body is seekable and its length known
	data, err := io.ReadAll(io.LimitReader(body, maxArchiveSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) > maxArchiveSize {
		return "", fmt.Errorf("file exceeds %d bytes", maxArchiveSize)
	}

	key := fmt.Sprintf("%s/%d%s", media.Kind, media.ID, path.Ext(file.FilePath))
	err = s.storage.Save(key, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	slog.Info("media archived", "media_id", media.ID, "key", key, "size", len(data))
	return key, nil
}
