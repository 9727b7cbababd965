package model

import "fmt"

// MediaKind is persisted as an integer in media.media_type.
type MediaKind int

const (
	MediaKindPhoto MediaKind = iota
	MediaKindAnimatedGif
	MediaKindVideoLoop
)

func (k MediaKind) String() string {
	switch k {
	case MediaKindPhoto:
		return "photo"
	case MediaKindAnimatedGif:
		return "gif"
	case MediaKindVideoLoop:
		return "video_loop"
	default:
		return fmt.Sprintf("media_kind(%d)", int(k))
	}
}

// Valid reports whether k is one of the known kinds.
func (k MediaKind) Valid() bool {
	return k >= MediaKindPhoto && k <= MediaKindVideoLoop
}

// Media is identified by (FileID, Kind); ID is the surrogate key tags and access rows hang off.
type Media struct {
	ID     int64     `db:"id"`
	FileID string    `db:"file_id"` // Opaque reference issued by Telegram
	Kind   MediaKind `db:"media_type"`
}
