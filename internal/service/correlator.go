package service

// PromptKey identifies a sent prompt. Telegram message ids are only unique per chat.
type PromptKey struct {
	ChatID    int64
	MessageID int64
}

// Correlator remembers which media item each outstanding "tag this" prompt refers to.
// Entries live until a reply consumes them; prompts that never get a reply stay for
// the life of the process.
//
// Owned by the dispatcher goroutine; not safe for concurrent use.
type Correlator struct {
	pending map[PromptKey]int64
}

func NewCorrelator() *Correlator {
	return &Correlator{pending: make(map[PromptKey]int64)}
}

// Register records that the prompt is waiting for tags for mediaID.
func (c *Correlator) Register(prompt PromptKey, mediaID int64) {
	c.pending[prompt] = mediaID
}

// Lookup returns the media id a prompt refers to without consuming it.
func (c *Correlator) Lookup(prompt PromptKey) (int64, bool) {
	mediaID, ok := c.pending[prompt]
	return mediaID, ok
}

func (c *Correlator) Remove(prompt PromptKey) {
	delete(c.pending, prompt)
}

func (c *Correlator) Len() int {
	return len(c.pending)
}
