package chatparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Message-header variants tried in order against each line; first match wins.
// Capture groups: date, time, sender, message.
var headerVariants = []*regexp.Regexp{
	// 01/02/23, 10:15 AM - Alice: Hello  (seconds and meridiem optional)
	regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2,4}),?\s+(\d{1,2}:\d{2}(?::\d{2})?(?:\s*(?:AM|PM|am|pm))?)\s*-\s*([^:]+?):\s(.*)$`),
	// [01/02/23, 10:15:32 AM] Alice: Hello
	regexp.MustCompile(`^\[(\d{1,2}/\d{1,2}/\d{2,4}),?\s+(\d{1,2}:\d{2}(?::\d{2})?(?:\s*(?:AM|PM|am|pm))?)\]\s*([^:]+?):\s?(.*)$`),
}

// Noise substrings for system messages that carry no conversational content.
// Matched lines are skipped without finalizing an open draft, so multi-line
// messages survive an interleaved notice.
var systemNoise = []string{
	"end-to-end encrypted",
	"security code changed",
	"created group",
	"created this group",
	"added you",
	"joined using this group's invite link",
	"left the group",
	"changed the group",
	"changed their phone number",
	"changed this group's icon",
}

// Media placeholder keywords, checked against the message text in order.
var mediaKinds = []struct {
	keyword string
	kind    string
}{
	{"image omitted", "image"},
	{"video omitted", "video"},
	{"audio omitted", "audio"},
	{"voice message omitted", "audio"},
	{"gif omitted", "gif"},
	{"sticker omitted", "sticker"},
	{"document omitted", "document"},
	{"contact card omitted", "contact"},
	{"media omitted", "media"},
}

// draft is a message being assembled, with continuation lines buffered until
// the next header line (or end of input) finalizes it.
type draft struct {
	msg    Message
	buffer []string
}

// Parse converts raw export text into a ParsedChat. Every platform currently
// routes through this one message-export parser; the platform tag is carried
// as metadata only. Lines that match no header variant are appended to the
// open draft as continuations, or dropped when no draft is open.
func Parse(raw string) ParsedChat {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	var (
		messages []Message
		current  *draft
	)

	finalize := func() {
		if current == nil {
			return
		}
		if len(current.buffer) > 0 {
			current.msg.Text = current.msg.Text + "\n" + strings.Join(current.buffer, "\n")
		}
		messages = append(messages, current.msg)
		current = nil
	}

	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if isSystemNoise(line) {
			// Skipped entirely; an open draft keeps buffering past it.
			continue
		}

		m := matchHeader(line)
		if m == nil {
			if current != nil {
				current.buffer = append(current.buffer, line)
			}
			// Unattributable line with no draft open: dropped.
			continue
		}

		finalize()
		msg := Message{
			Date:   m[1],
			Time:   m[2],
			Sender: strings.TrimSpace(m[3]),
			Text:   m[4],
		}
		if kind, ok := mediaType(m[4]); ok {
			msg.IsMedia = true
			msg.MediaType = kind
		}
		current = &draft{msg: msg}
	}
	finalize()

	return ParsedChat{
		Messages:      messages,
		TotalMessages: len(messages),
		Participants:  participants(messages),
		DateRange:     dateRange(messages),
	}
}

func matchHeader(line string) []string {
	for _, re := range headerVariants {
		if m := re.FindStringSubmatch(line); m != nil {
			return m
		}
	}
	return nil
}

func isSystemNoise(line string) bool {
	lower := strings.ToLower(line)
	for _, n := range systemNoise {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

func mediaType(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, mk := range mediaKinds {
		if strings.Contains(lower, mk.keyword) {
			return mk.kind, true
		}
	}
	return "", false
}

// participants returns distinct sender names in encounter order, exactly as
// captured (no normalization or casing).
func participants(messages []Message) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range messages {
		if !seen[m.Sender] {
			seen[m.Sender] = true
			out = append(out, m.Sender)
		}
	}
	return out
}

// dateRange parses each message's date token into a comparable time and
// returns the original tokens of the earliest and latest. Unparsable dates
// are excluded without failing the parse.
func dateRange(messages []Message) DateRange {
	type dated struct {
		token string
		t     time.Time
	}
	var ds []dated
	for _, m := range messages {
		if t, ok := parseDateToken(m.Date); ok {
			ds = append(ds, dated{token: m.Date, t: t})
		}
	}
	if len(ds) == 0 {
		return DateRange{}
	}
	first, last := ds[0], ds[0]
	for _, d := range ds[1:] {
		if d.t.Before(first.t) {
			first = d
		}
		if d.t.After(last.t) {
			last = d
		}
	}
	return DateRange{Start: first.token, End: last.token}
}

// parseDateToken parses "A/B/Y" where A/B are month/day in either order and
// two-digit years are assumed 2000+. Month-first is preferred; when the
// first number cannot be a month the day-first reading is used.
func parseDateToken(token string) (time.Time, bool) {
	parts := strings.Split(token, "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	a, err1 := strconv.Atoi(parts[0])
	b, err2 := strconv.Atoi(parts[1])
	y, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if y < 100 {
		y += 2000
	}

	month, day := a, b
	if month > 12 && day <= 12 {
		month, day = b, a
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// ParseEmptyError is the structured zero-parse condition surfaced to callers
// with diagnostic context; it is a recoverable, user-facing outcome rather
// than a pipeline failure.
type ParseEmptyError struct {
	Hint        string   `json:"hint"`
	Platform    string   `json:"platform"`
	SampleLines []string `json:"sampleLines"`
}

func (e *ParseEmptyError) Error() string {
	return fmt.Sprintf("no messages could be parsed (detected platform %s)", e.Platform)
}

// SampleLines returns up to max raw non-empty lines from the input, used to
// populate a ParseEmptyError.
func SampleLines(raw string, max int) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
		if len(out) == max {
			break
		}
	}
	return out
}
