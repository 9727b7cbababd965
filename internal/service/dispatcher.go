package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"strconv"
	"time"

	"github.com/mehubot/mehu/internal/model"
	"github.com/mehubot/mehu/internal/repository"
	"github.com/mehubot/mehu/internal/telegram"
)

// maxInlineResults is the Bot API cap on results per inline answer.
const maxInlineResults = 50

// Bot is the outbound side of the Telegram connection.
type Bot interface {
	AnswerInlineQuery(ctx context.Context, queryID string, results []telegram.InlineQueryResult, cacheTime time.Duration) error
	SendPhotoWithPrompt(ctx context.Context, chatID int64, fileID, prompt string) (int64, error)
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
}

type DispatcherConfig struct {
	PromptText string        // Caption on the forced-reply tag prompt
	ButtonText string        // Label of the button under inline photo results
	CacheTime  time.Duration // cache_time for inline answers
}

// Dispatcher applies the bot's rules to one event at a time. It is the only place
// where repositories and the correlator are combined.
type Dispatcher struct {
	bot     Bot
	media   repository.MediaRepository
	tags    repository.TagRepository
	access  repository.AccessRepository
	pending *Correlator
	archive *ArchiveService // nil when archiving is disabled
	cfg     DispatcherConfig
}

func NewDispatcher(
	bot Bot,
	media repository.MediaRepository,
	tags repository.TagRepository,
	access repository.AccessRepository,
	pending *Correlator,
	archive *ArchiveService,
	cfg DispatcherConfig,
) *Dispatcher {
	if cfg.PromptText == "" {
		cfg.PromptText = "How should this be tagged?"
	}
	if cfg.ButtonText == "" {
		cfg.ButtonText = "Tag"
	}
	return &Dispatcher{
		bot:     bot,
		media:   media,
		tags:    tags,
		access:  access,
		pending: pending,
		archive: archive,
		cfg:     cfg,
	}
}

// Run consumes events until the channel is closed. It returns early only on an
// integrity failure, which the caller must treat as fatal.
//
// Cancelling ctx does not stop the loop. Events already delivered are still handled
// in full, sends included; each send is bounded by the client's own timeout.
func (d *Dispatcher) Run(ctx context.Context, events <-chan telegram.Event) error {
	ctx = context.WithoutCancel(ctx)
	for ev := range events {
		err := d.Handle(ctx, ev)
		if err == nil {
			continue
		}
		if errors.Is(err, repository.ErrConstraintViolation) {
			return fmt.Errorf("integrity failure: %w", err)
		}
		slog.Error("event dropped", "event", fmt.Sprintf("%T", ev), "error", err)
	}
	slog.Info("dispatcher stopped", "pending_prompts", d.pending.Len())
	return nil
}

// Handle processes a single event. Send failures are logged and swallowed; only
// storage errors are returned.
func (d *Dispatcher) Handle(ctx context.Context, ev telegram.Event) error {
	switch ev := ev.(type) {
	case telegram.InlineQuery:
		return d.handleInlineQuery(ctx, ev)
	case telegram.SelectedResult:
		return d.handleSelectedResult(ev)
	case telegram.IncomingMedia:
		return d.storeMedia(ctx, ev.FileID, ev.Kind, ev.Tags, ev.Owner)
	case telegram.IncomingDocument:
		return d.handleDocument(ctx, ev)
	case telegram.InteractiveAction:
		return d.handleAction(ctx, ev)
	case telegram.ReplyToPrompt:
		return d.handleReply(ev)
	}
	return nil
}

func (d *Dispatcher) handleInlineQuery(ctx context.Context, ev telegram.InlineQuery) error {
	// Tags are stored lower-cased, so the prefix is folded the same way
	prefix := model.NormalizeTag(ev.Query)

	var (
		found []*model.Media
		err   error
	)
	if prefix == "" {
		found, err = d.media.All()
	} else {
		found, err = d.media.ByTagPrefix(prefix)
	}
	if err != nil {
		return fmt.Errorf("failed to query media: %w", err)
	}

	results := make([]telegram.InlineQueryResult, 0, min(len(found), maxInlineResults))
	for _, m := range found {
		if len(results) == maxInlineResults {
			break
		}
		item, ok := d.answerItem(m)
		if ok {
			results = append(results, item)
		}
	}

	err = d.bot.AnswerInlineQuery(ctx, ev.QueryID, results, d.cfg.CacheTime)
	if err != nil {
		slog.Warn("failed to answer inline query", "query_id", ev.QueryID, "error", err)
		return nil
	}

	slog.Debug("inline query answered", "query", prefix, "results", len(results))
	return nil
}

func (d *Dispatcher) answerItem(m *model.Media) (telegram.InlineQueryResult, bool) {
	id := strconv.FormatInt(m.ID, 10)
	switch m.Kind {
	case model.MediaKindPhoto:
		return telegram.CachedPhoto{
			ID:          id,
			PhotoFileID: m.FileID,
			ReplyMarkup: telegram.SingleButton(d.cfg.ButtonText, id),
		}, true
	case model.MediaKindAnimatedGif:
		return telegram.CachedGif{ID: id, GifFileID: m.FileID}, true
	case model.MediaKindVideoLoop:
		return telegram.CachedMpeg4Gif{ID: id, Mpeg4FileID: m.FileID}, true
	}
	return nil, false
}

func (d *Dispatcher) handleSelectedResult(ev telegram.SelectedResult) error {
	mediaID, err := strconv.ParseInt(ev.ResultID, 10, 64)
	if err != nil {
		slog.Warn("ignoring selected result with bad id", "result_id", ev.ResultID, "error", err)
		return nil
	}

	n, err := d.tags.BumpCounter(mediaID, model.NormalizeTag(ev.Query))
	if err != nil {
		return fmt.Errorf("failed to bump tag counter: %w", err)
	}

	slog.Debug("selection recorded", "media_id", mediaID, "query", ev.Query, "tags_bumped", n)
	return nil
}

func (d *Dispatcher) handleDocument(ctx context.Context, ev telegram.IncomingDocument) error {
	kind, ok := documentKind(ev.MimeType)
	if !ok {
		slog.Debug("ignoring document", "mime_type", ev.MimeType)
		return nil
	}
	return d.storeMedia(ctx, ev.FileID, kind, ev.Tags, ev.Owner)
}

// documentKind maps a document MIME type onto a media kind. Only MP4, the container
// Telegram uses for animations, is recognized.
func documentKind(mimeType string) (model.MediaKind, bool) {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return 0, false
	}
	if mediaType == "video/mp4" {
		return model.MediaKindAnimatedGif, true
	}
	return 0, false
}

func (d *Dispatcher) storeMedia(ctx context.Context, fileID string, kind model.MediaKind, words []string, owner telegram.Owner) error {
	mediaID, created, err := d.media.Upsert(fileID, kind)
	if err != nil {
		return fmt.Errorf("failed to store media: %w", err)
	}

	// Archived right after creation: a redelivered upload is no longer "created"
	if created && d.archive != nil {
		_, err = d.archive.Archive(ctx, &model.Media{ID: mediaID, FileID: fileID, Kind: kind})
		if err != nil {
			slog.Warn("failed to archive media", "media_id", mediaID, "error", err)
		}
	}

	for _, word := range words {
		tag := model.NormalizeTag(word)
		if tag == "" {
			continue
		}
		_, err = d.tags.Upsert(mediaID, tag)
		if err != nil {
			return fmt.Errorf("failed to store tag: %w", err)
		}
	}

	err = d.access.Record(mediaID, owner.ID, owner.Kind)
	if err != nil {
		return fmt.Errorf("failed to record access: %w", err)
	}

	return nil
}

func (d *Dispatcher) handleAction(ctx context.Context, ev telegram.InteractiveAction) error {
	// Always acknowledge so the client stops showing a spinner
	defer func() {
		err := d.bot.AnswerCallbackQuery(ctx, ev.CallbackID, "")
		if err != nil {
			slog.Warn("failed to answer callback query", "callback_id", ev.CallbackID, "error", err)
		}
	}()

	if ev.Action != telegram.ActionTag {
		return nil
	}

	mediaID, err := strconv.ParseInt(ev.SubjectID, 10, 64)
	if err != nil {
		slog.Warn("ignoring action with bad subject", "subject_id", ev.SubjectID, "error", err)
		return nil
	}

	media, err := d.media.ByID(mediaID)
	if errors.Is(err, repository.ErrMediaNotFound) {
		slog.Warn("ignoring action for unknown media", "media_id", mediaID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load media: %w", err)
	}

	if media.Kind != model.MediaKindPhoto {
		slog.Debug("ignoring tag action for non-photo", "media_id", mediaID, "kind", media.Kind.String())
		return nil
	}

	promptID, err := d.bot.SendPhotoWithPrompt(ctx, ev.ChatID, media.FileID, d.cfg.PromptText)
	if err != nil {
		slog.Warn("failed to send tag prompt", "media_id", mediaID, "chat_id", ev.ChatID, "error", err)
		return nil
	}

	d.pending.Register(PromptKey{ChatID: ev.ChatID, MessageID: promptID}, mediaID)
	slog.Debug("tag prompt sent", "media_id", mediaID, "chat_id", ev.ChatID, "prompt_id", promptID, "pending", d.pending.Len())
	return nil
}

func (d *Dispatcher) handleReply(ev telegram.ReplyToPrompt) error {
	prompt := PromptKey{ChatID: ev.ChatID, MessageID: ev.PromptMessageID}
	mediaID, ok := d.pending.Lookup(prompt)
	if !ok {
		return nil
	}

	for _, tag := range model.SplitTags(ev.Text) {
		_, err := d.tags.Upsert(mediaID, tag)
		if err != nil {
			return fmt.Errorf("failed to store tag: %w", err)
		}
	}

	d.pending.Remove(prompt)
	slog.Info("media tagged from reply", "media_id", mediaID, "chat_id", ev.ChatID, "prompt_id", ev.PromptMessageID)
	return nil
}
