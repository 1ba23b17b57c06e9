package chatparse

// Message is a single normalized chat message. Immutable once produced by Parse.
type Message struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Sender    string `json:"sender"`
	Text      string `json:"message"`
	IsMedia   bool   `json:"isMedia"`
	MediaType string `json:"mediaType,omitempty"`
}

// DateRange holds the first and last date tokens that parsed successfully.
// Both are empty when no date in the conversation could be parsed.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ParsedChat is the normalized output of Parse.
type ParsedChat struct {
	Messages      []Message `json:"messages"`
	TotalMessages int       `json:"totalMessages"`
	Participants  []string  `json:"participants"`
	DateRange     DateRange `json:"dateRange"`
}

// SampleMessage is one entry of the bounded recent-message sample handed to
// the reasoning call.
type SampleMessage struct {
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}
