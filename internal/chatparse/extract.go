package chatparse

import "strings"

// RecentSampleSize bounds the structured recent-message sample handed to the
// reasoning call alongside the full text digest.
const RecentSampleSize = 20

// ExtractText reduces a parsed conversation to "sender: message" lines in
// original order, with media placeholders filtered out. Deterministic for a
// given ParsedChat.
func ExtractText(chat ParsedChat) string {
	var sb strings.Builder
	for _, m := range chat.Messages {
		if m.IsMedia {
			continue
		}
		sb.WriteString(m.Sender)
		sb.WriteString(": ")
		sb.WriteString(m.Text)
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// RecentSample returns the last n messages as structured tuples, giving the
// reasoning call concrete recent context without resending the transcript.
func RecentSample(chat ParsedChat, n int) []SampleMessage {
	msgs := chat.Messages
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]SampleMessage, len(msgs))
	for i, m := range msgs {
		ts := m.Date
		if m.Time != "" {
			ts = strings.TrimSpace(m.Date + " " + m.Time)
		}
		out[i] = SampleMessage{
			Sender:    m.Sender,
			Message:   m.Text,
			Timestamp: ts,
		}
	}
	return out
}
