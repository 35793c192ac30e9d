package sources

import (
	"encoding/json"
	"fmt"
	"strings"
)

type chatExport struct {
	Channels []chatChannel `json:"channels"`
}

type chatChannel struct {
	ChannelName scalar       `json:"channel_name"`
	Name        scalar       `json:"name"`
	Threads     []chatThread `json:"threads"`
}

type chatThread struct {
	Author    scalar         `json:"author"`
	Text      scalar         `json:"text"`
	ThreadTS  scalar         `json:"thread_ts"`
	Reactions []chatReaction `json:"reactions"`
	Replies   []chatReply    `json:"replies"`
}

type chatReaction struct {
	Emoji scalar `json:"emoji"`
	Count scalar `json:"count"`
}

type chatReply struct {
	Author scalar `json:"author"`
	Text   scalar `json:"text"`
}

func (c chatChannel) name() string {
	name := c.ChannelName.String()
	if name == "" {
		name = c.Name.String()
	}
	if name == "" {
		return "#unknown"
	}
	if !strings.HasPrefix(name, "#") {
		name = "#" + name
	}
	return name
}

// formatChat flattens a chat export into one line per thread carrying the
// channel, the participants in order of first appearance, the opening message
// and the replies. Channels and threads keep their export order.
func formatChat(raw []byte, opts ChatOptions) (string, int, error) {
	var export chatExport
	if err := json.Unmarshal(raw, &export); err != nil {
		return "", 0, fmt.Errorf("malformed chat export: %w", err)
	}

	var lines []string
	for _, channel := range export.Channels {
		for _, thread := range channel.Threads {
			lines = append(lines, formatThread(channel.name(), thread, opts.MaxReplies))
		}
	}

	return strings.Join(lines, "\n"), len(lines), nil
}

func formatThread(channel string, thread chatThread, maxReplies int) string {
	author := orDefault(thread.Author.String(), "unknown")

	participants := []string{author}
	seen := map[string]bool{author: true}
	for _, r := range thread.Replies {
		a := orDefault(r.Author.String(), "unknown")
		if !seen[a] {
			seen[a] = true
			participants = append(participants, a)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "- %s | participants: %s | %s: %s",
		channel, strings.Join(participants, ", "), author, orDefault(thread.Text.String(), "(no text)"))

	if ts := thread.ThreadTS.String(); ts != "" {
		b.WriteString(" | at: " + ts)
	}

	if len(thread.Reactions) > 0 {
		parts := make([]string, 0, len(thread.Reactions))
		for _, r := range thread.Reactions {
			parts = append(parts, fmt.Sprintf(":%s: %s", strings.Trim(r.Emoji.String(), ":"), orDefault(r.Count.String(), "1")))
		}
		b.WriteString(" | reactions: " + strings.Join(parts, ", "))
	}

	replies := thread.Replies
	omitted := 0
	if maxReplies > 0 && len(replies) > maxReplies {
		omitted = len(replies) - maxReplies
		replies = replies[:maxReplies]
	}
	if len(replies) > 0 {
		parts := make([]string, 0, len(replies))
		for _, r := range replies {
			parts = append(parts, orDefault(r.Author.String(), "unknown")+": "+r.Text.String())
		}
		fmt.Fprintf(&b, " | replies (%d): %s", len(thread.Replies), strings.Join(parts, "; "))
		if omitted > 0 {
			fmt.Fprintf(&b, "; +%d more", omitted)
		}
	}

	return b.String()
}
