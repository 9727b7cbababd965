package telegram

import (
	"strings"

	"github.com/mehubot/mehu/internal/model"
)

// ActionTag is the only interactive action: the "Tag" button under an inline photo.
const ActionTag = "tag"

// Event is a classified update. The set of implementations is closed.
type Event interface {
	event()
}

// Owner is who uploaded a media item: the user in a private chat, otherwise the chat itself.
type Owner struct {
	ID   int64
	Kind model.OwnerKind
}

type InlineQuery struct {
	QueryID string
	Query   string
	FromID  int64
}

// SelectedResult reports that a user picked an inline result. ResultID echoes the
// media id the bot put in the answer.
type SelectedResult struct {
	ResultID string
	Query    string
	FromID   int64
}

type IncomingMedia struct {
	FileID string
	Kind   model.MediaKind
	Tags   []string // Raw caption tokens
	Owner  Owner
}

type IncomingDocument struct {
	FileID   string
	MimeType string
	Tags     []string
	Owner    Owner
}

// InteractiveAction is a button press. SubjectID is the raw callback payload.
type InteractiveAction struct {
	CallbackID string
	Action     string
	SubjectID  string
	ChatID     int64 // Where follow-up messages go: the presser's private chat
}

// ReplyToPrompt is a text reply to an earlier message. Message ids are only unique
// within a chat, so ChatID is part of the prompt's identity.
type ReplyToPrompt struct {
	ChatID          int64
	PromptMessageID int64
	Text            string
}

func (InlineQuery) event()       {}
func (SelectedResult) event()    {}
func (IncomingMedia) event()     {}
func (IncomingDocument) event()  {}
func (InteractiveAction) event() {}
func (ReplyToPrompt) event()     {}

// Classify maps an update onto an Event, or returns nil when the update carries
// nothing the bot acts on.
func Classify(u Update) Event {
	switch {
	case u.InlineQuery != nil:
		return InlineQuery{
			QueryID: u.InlineQuery.ID,
			Query:   u.InlineQuery.Query,
			FromID:  u.InlineQuery.From.ID,
		}
	case u.ChosenInlineResult != nil:
		return SelectedResult{
			ResultID: u.ChosenInlineResult.ResultID,
			Query:    u.ChosenInlineResult.Query,
			FromID:   u.ChosenInlineResult.From.ID,
		}
	case u.CallbackQuery != nil:
		return InteractiveAction{
			CallbackID: u.CallbackQuery.ID,
			Action:     ActionTag,
			SubjectID:  u.CallbackQuery.Data,
			ChatID:     u.CallbackQuery.From.ID,
		}
	case u.Message != nil:
		return classifyMessage(u.Message)
	}
	return nil
}

func classifyMessage(m *Message) Event {
	if m.ReplyToMessage != nil && m.Text != "" {
		return ReplyToPrompt{
			ChatID:          m.Chat.ID,
			PromptMessageID: m.ReplyToMessage.MessageID,
			Text:            m.Text,
		}
	}

	if len(m.Photo) > 0 {
		// Sizes are ascending; the last one is the highest resolution
		photo := m.Photo[len(m.Photo)-1]
		return IncomingMedia{
			FileID: photo.FileID,
			Kind:   model.MediaKindPhoto,
			Tags:   strings.Fields(m.Caption),
			Owner:  messageOwner(m),
		}
	}

	if m.Document != nil {
		return IncomingDocument{
			FileID:   m.Document.FileID,
			MimeType: m.Document.MimeType,
			Tags:     strings.Fields(m.Caption),
			Owner:    messageOwner(m),
		}
	}

	return nil
}

func messageOwner(m *Message) Owner {
	if m.Chat.Type == "private" {
		if m.From != nil {
			return Owner{ID: m.From.ID, Kind: model.OwnerKindUser}
		}
		return Owner{ID: m.Chat.ID, Kind: model.OwnerKindUser}
	}
	return Owner{ID: m.Chat.ID, Kind: model.OwnerKindGroup}
}
