package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/mehubot/mehu/internal/db"
	"github.com/mehubot/mehu/internal/telegram"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "mehu.db") + "?_pragma=foreign_keys(1)"
	database, err := db.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

type inlineAnswer struct {
	QueryID   string
	Results   []telegram.InlineQueryResult
	CacheTime time.Duration
}

type sentPrompt struct {
	ChatID int64
	FileID string
	Prompt string
}

// fakeBot records outbound calls. Failing makes every call return errBotDown.
type fakeBot struct {
	mu        sync.Mutex
	answers   []inlineAnswer
	prompts   []sentPrompt
	callbacks []string
	nextID    int64
	failing   bool
}

var errBotDown = errors.New("bot down")

func (b *fakeBot) AnswerInlineQuery(_ context.Context, queryID string, results []telegram.InlineQueryResult, cacheTime time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing {
		return errBotDown
	}
	b.answers = append(b.answers, inlineAnswer{QueryID: queryID, Results: results, CacheTime: cacheTime})
	return nil
}

func (b *fakeBot) SendPhotoWithPrompt(_ context.Context, chatID int64, fileID, prompt string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing {
		return 0, errBotDown
	}
	b.prompts = append(b.prompts, sentPrompt{ChatID: chatID, FileID: fileID, Prompt: prompt})
	return b.nextID, nil
}

func (b *fakeBot) AnswerCallbackQuery(_ context.Context, callbackID, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing {
		return errBotDown
	}
	b.callbacks = append(b.callbacks, callbackID)
	return nil
}

type fakeFetcher struct {
	files map[string]string // file id -> file path
	data  map[string][]byte // file path -> contents
}

func (f *fakeFetcher) GetFile(_ context.Context, fileID string) (*telegram.File, error) {
	p, ok := f.files[fileID]
	if !ok {
		return nil, &telegram.APIError{Method: "getFile", Code: 400, Description: "Bad Request: invalid file_id"}
	}
	return &telegram.File{FileID: fileID, FilePath: p}, nil
}

func (f *fakeFetcher) DownloadFile(_ context.Context, filePath string) (io.ReadCloser, error) {
	data, ok := f.data[filePath]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (s *fakeStorage) Save(path string, file io.Reader) error {
	if s.err != nil {
		return s.err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	s.objects[path] = data
	return nil
}
