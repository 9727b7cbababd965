package telegram

import "encoding/json"

// Wire types for the subset of the Bot API the bot consumes and produces.

type response struct {
	OK          bool                `json:"ok"`
	Result      json.RawMessage     `json:"result"`
	ErrorCode   int                 `json:"error_code"`
	Description string              `json:"description"`
	Parameters  *responseParameters `json:"parameters"`
}

type responseParameters struct {
	RetryAfter int `json:"retry_after"`
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"` // "private", "group", "supergroup" or "channel"
}

type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int64  `json:"file_size"`
}

type Document struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileName     string `json:"file_name"`
	MimeType     string `json:"mime_type"`
}

type Message struct {
	MessageID      int64       `json:"message_id"`
	From           *User       `json:"from"`
	Chat           Chat        `json:"chat"`
	Text           string      `json:"text"`
	Caption        string      `json:"caption"`
	Photo          []PhotoSize `json:"photo"`
	Document       *Document   `json:"document"`
	ReplyToMessage *Message    `json:"reply_to_message"`
}

type InlineQueryUpdate struct {
	ID    string `json:"id"`
	From  User   `json:"from"`
	Query string `json:"query"`
}

type ChosenInlineResult struct {
	ResultID string `json:"result_id"`
	From     User   `json:"from"`
	Query    string `json:"query"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message"`
	Data    string   `json:"data"`
}

type Update struct {
	UpdateID           int64               `json:"update_id"`
	Message            *Message            `json:"message"`
	InlineQuery        *InlineQueryUpdate  `json:"inline_query"`
	ChosenInlineResult *ChosenInlineResult `json:"chosen_inline_result"`
	CallbackQuery      *CallbackQuery      `json:"callback_query"`
}

type File struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileSize     int64  `json:"file_size"`
	FilePath     string `json:"file_path"`
}

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// SingleButton builds a one-button keyboard.
func SingleButton(text, data string) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{{{Text: text, CallbackData: data}}},
	}
}

type ForceReply struct {
	ForceReply bool `json:"force_reply"`
	Selective  bool `json:"selective,omitempty"`
}

// InlineQueryResult is a closed union; each variant writes its own "type" discriminator.
type InlineQueryResult interface {
	inlineQueryResult()
}

type CachedPhoto struct {
	ID          string                `json:"id"`
	PhotoFileID string                `json:"photo_file_id"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type CachedGif struct {
	ID          string                `json:"id"`
	GifFileID   string                `json:"gif_file_id"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type CachedMpeg4Gif struct {
	ID          string                `json:"id"`
	Mpeg4FileID string                `json:"mpeg4_file_id"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

func (CachedPhoto) inlineQueryResult()    {}
func (CachedGif) inlineQueryResult()      {}
func (CachedMpeg4Gif) inlineQueryResult() {}

func (r CachedPhoto) MarshalJSON() ([]byte, error) {
	type alias CachedPhoto
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{"photo", alias(r)})
}

func (r CachedGif) MarshalJSON() ([]byte, error) {
	type alias CachedGif
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{"gif", alias(r)})
}

func (r CachedMpeg4Gif) MarshalJSON() ([]byte, error) {
	type alias CachedMpeg4Gif
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{"mpeg4_gif", alias(r)})
}

// Request payloads.

type getUpdatesParams struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

type answerInlineQueryParams struct {
	InlineQueryID string              `json:"inline_query_id"`
	Results       []InlineQueryResult `json:"results"`
	CacheTime     int                 `json:"cache_time"`
	IsPersonal    bool                `json:"is_personal"`
}

type sendPhotoParams struct {
	ChatID      int64       `json:"chat_id"`
	Photo       string      `json:"photo"`
	Caption     string      `json:"caption,omitempty"`
	ReplyMarkup *ForceReply `json:"reply_markup,omitempty"`
}

type answerCallbackQueryParams struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
}

type getFileParams struct {
	FileID string `json:"file_id"`
}
