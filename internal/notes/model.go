package notes

import "time"

// Meeting types.
const (
	MeetingTypeVoice  = "Voice Note"
	MeetingTypeScreen = "Screen Recording"
	MeetingTypeManual = "Manual"
)

// Display icons.
const (
	IconVoice  = "🎙️"
	IconScreen = "🖥️"
	IconManual = "📝"
)

// Note is a stored recording or manual note. Empty AudioPath, Transcript and
// Summary are stored as NULL.
type Note struct {
	ID              string
	UserID          string
	Title           string
	Description     string
	AudioPath       string
	AudioURL        string
	Transcript      string
	Summary         string
	DurationSeconds int
	MeetingType     string
	Icon            string
	Participants    []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasAudio reports whether the note still references a blob.
func (n Note) HasAudio() bool { return n.AudioPath != "" }

// QAPair is one answered question. Pairs are append-only.
type QAPair struct {
	ID        string
	NoteID    string
	Question  string
	Answer    string
	CreatedAt time.Time
}

// AudioRef identifies a blob held by a note.
type AudioRef struct {
	NoteID    string
	UserID    string
	AudioPath string
	CreatedAt time.Time
}
