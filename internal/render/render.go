package render

import "strings"

// Reply renders an assistant reply for a chat bubble, falling back to the
// raw text when rendering fails. The blank lines glamour puts around a
// document and the padding it leaves at line ends are trimmed.
func Reply(content string, opts Options) string {
	return replyRenderers.reply(content, opts)
}

func (p *rendererPools) reply(content string, opts Options) string {
	r, err := p.borrow(opts)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	p.release(opts, r)
	if err != nil {
		return content
	}

	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}
