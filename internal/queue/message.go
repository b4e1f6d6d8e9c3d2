package queue

import "encoding/json"

// MessageVersion is the current payload version.
const MessageVersion = 1

// Message is a stopped recording whose audio waits in object storage for the
// worker to run the pipeline.
type Message struct {
	RecordingID     string `json:"recordingId"`
	UserID          string `json:"userId"`
	Source          string `json:"source"`
	DurationSeconds int    `json:"durationSeconds"`
	AudioPath       string `json:"audioPath"`
	MeetingTitle    string `json:"meetingTitle,omitempty"`
	Participant     string `json:"participant,omitempty"`
	RequestID       string `json:"requestId"`
	EnqueuedAt      string `json:"enqueuedAt"`
	Version         int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
