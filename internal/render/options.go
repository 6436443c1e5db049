// Package render turns assistant replies into styled terminal output.
package render

// bubbleFrame is the horizontal space a chat bubble's border and padding
// take from its width.
const bubbleFrame = 4

// minReplyWidth keeps replies readable in very narrow terminals.
const minReplyWidth = 10

// Options configures how replies are rendered.
type Options struct {
	// Width is the wrap width of the rendered text
	Width int

	// Style is a glamour style name ("dark", "light", "notty", ...) or a
	// path to a JSON style file
	Style string

	// EnableEmoji converts :emoji: to unicode characters
	EnableEmoji bool

	// PreserveNewLines keeps the line breaks the consultant wrote
	PreserveNewLines bool
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		Width:            80,
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
	}
}

// ForBubble returns the options for a reply drawn inside a chat bubble of
// the given outer width.
func (o Options) ForBubble(bubbleWidth int) Options {
	o.Width = max(bubbleWidth-bubbleFrame, minReplyWidth)
	return o
}
