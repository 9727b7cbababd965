package model

type OwnerKind int

const (
	OwnerKindUser OwnerKind = iota
	OwnerKindGroup
)

func (k OwnerKind) String() string {
	if k == OwnerKindGroup {
		return "group"
	}
	return "user"
}

// Access records that an owner (a user or a group chat) may retrieve a media item.
type Access struct {
	ID        int64     `db:"id"`
	MediaID   int64     `db:"media_id"`
	OwnerID   int64     `db:"owner_id"`
	OwnerKind OwnerKind `db:"owner_kind"`
}
