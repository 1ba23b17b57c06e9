package platform

import (
	"regexp"
	"strings"
)

// Platform identifies the originating export format of a submission.
type Platform string

const (
	WhatsApp   Platform = "whatsapp"
	SMSAndroid Platform = "sms_android"
	SMSIOS     Platform = "sms_ios"
	Email      Platform = "email"
	Manual     Platform = "manual"
	Unknown    Platform = "unknown"
)

// Metadata is the detection result for one submission. Produced once, never mutated.
type Metadata struct {
	Platform       Platform `json:"platform"`
	Confidence     float64  `json:"confidence"`
	DetectedFormat string   `json:"detectedFormat"`
}

// signature is one entry in the detection ladder. Signatures are checked in
// order, first match wins, so specific export shapes must come before the
// loose "any line with a colon" heuristics.
type signature struct {
	re         *regexp.Regexp
	platform   Platform
	confidence float64
	format     string
}

var signatures = []signature{
	// WhatsApp export: "01/02/23, 10:15 AM - Alice: Hello"
	{
		re:         regexp.MustCompile(`(?m)^\d{1,2}/\d{1,2}/\d{2,4},?\s+\d{1,2}:\d{2}(:\d{2})?\s*(AM|PM|am|pm)?\s*-\s*[^:]+:`),
		platform:   WhatsApp,
		confidence: 0.95,
		format:     "whatsapp_dash",
	},
	// WhatsApp bracketed export: "[01/02/23, 10:15:32 AM] Alice: Hello"
	{
		re:         regexp.MustCompile(`(?m)^\[\d{1,2}/\d{1,2}/\d{2,4},?\s+\d{1,2}:\d{2}(:\d{2})?\s*(AM|PM|am|pm)?\]\s*[^:]+:`),
		platform:   WhatsApp,
		confidence: 0.95,
		format:     "whatsapp_bracket",
	},
	// Android SMS backup apps: "+15551234567 (Sent|Received)" or XML-ish <sms blocks.
	{
		re:         regexp.MustCompile(`(?m)(<sms[\s>]|^\+?\d{7,15}\s+\((?i:sent|received)\))`),
		platform:   SMSAndroid,
		confidence: 0.85,
		format:     "sms_backup",
	},
	// iOS message export tools: "iMessage" headers or "Read Receipt" blocks.
	{
		re:         regexp.MustCompile(`(?m)^(iMessage|Message - (?i:SMS|iMessage))\b`),
		platform:   SMSIOS,
		confidence: 0.8,
		format:     "ios_export",
	},
	// Forwarded e-mail: header lines at the start of a line.
	{
		re:         regexp.MustCompile(`(?mi)^(from|to|subject|date):\s+\S`),
		platform:   Email,
		confidence: 0.75,
		format:     "email_headers",
	},
}

// speakerLine matches the loose "speaker: text" shape used for the manual fallback.
var speakerLine = regexp.MustCompile(`^\s*[^:\s][^:]{0,80}:\s+\S`)

// Detect classifies raw text against the signature ladder. It is a pure
// function of its input: identical text always yields identical metadata.
func Detect(raw string) Metadata {
	for _, sig := range signatures {
		if sig.re.MatchString(raw) {
			return Metadata{
				Platform:       sig.platform,
				Confidence:     sig.confidence,
				DetectedFormat: sig.format,
			}
		}
	}

	// No structural signature matched. If several lines look like
	// "speaker: text", treat it as a manually pasted conversation.
	count := 0
	for _, line := range strings.Split(raw, "\n") {
		if speakerLine.MatchString(line) {
			count++
			if count >= 2 {
				return Metadata{Platform: Manual, Confidence: 0.5, DetectedFormat: "speaker_colon"}
			}
		}
	}

	return Metadata{Platform: Unknown, Confidence: 0.3, DetectedFormat: "none"}
}
