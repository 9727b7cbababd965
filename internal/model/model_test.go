package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMediaKind_String(t *testing.T) {
	assert.Equal(t, "photo", MediaKindPhoto.String())
	assert.Equal(t, "gif", MediaKindAnimatedGif.String())
	assert.Equal(t, "video_loop", MediaKindVideoLoop.String())
	assert.Equal(t, "media_kind(9)", MediaKind(9).String())
}

func TestMediaKind_Valid(t *testing.T) {
	assert.True(t, MediaKindPhoto.Valid())
	assert.True(t, MediaKindVideoLoop.Valid())
	assert.False(t, MediaKind(-1).Valid())
	assert.False(t, MediaKind(3).Valid())
}

func TestOwnerKind_String(t *testing.T) {
	assert.Equal(t, "user", OwnerKindUser.String())
	assert.Equal(t, "group", OwnerKindGroup.String())
}

func TestNormalizeTag(t *testing.T) {
	assert.Equal(t, "cat", NormalizeTag("Cat"))
	assert.Equal(t, "ärger", NormalizeTag("ÄRGER"))
	assert.Equal(t, "", NormalizeTag("   "))
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"red", "car"}, SplitTags("red car"))
	assert.Equal(t, []string{"blue", "bike"}, SplitTags("  Blue\tbike\n BLUE "))
	assert.Empty(t, SplitTags(""))
	assert.Empty(t, SplitTags(" \t\n"))
}
