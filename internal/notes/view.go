package notes

import "time"

// ExcerptLength is how many characters the listing shows before truncating.
const ExcerptLength = 150

// Excerpt returns the first limit characters of text and whether more
// remain. Both use the same character measure.
func Excerpt(text string, limit int) (string, bool) {
	r := []rune(text)
	if len(r) <= limit {
		return text, false
	}
	return string(r[:limit]) + "…", true
}

// NoteResponse is the outward-facing representation of a note.
type NoteResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Excerpt         string    `json:"excerpt"`
	HasMore         bool      `json:"hasMore"`
	AudioURL        *string   `json:"audioUrl"`
	AudioPath       *string   `json:"audioPath"`
	Transcript      string    `json:"transcript,omitempty"`
	Summary         string    `json:"summary,omitempty"`
	HasSummary      bool      `json:"hasSummary"`
	DurationSeconds int       `json:"duration"`
	MeetingType     string    `json:"meetingType"`
	Icon            string    `json:"icon"`
	Participants    []string  `json:"participants"`
	CreatedAt       time.Time `json:"date"`
}

// QAResponse is one Q&A pair.
type QAResponse struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToResponse builds the outward view of n.
func ToResponse(n Note) NoteResponse {
	source := n.Description
	if source == "" {
		source = n.Transcript
	}
	excerpt, more := Excerpt(source, ExcerptLength)
	participants := n.Participants
	if participants == nil {
		participants = []string{}
	}
	return NoteResponse{
		ID:              n.ID,
		Title:           n.Title,
		Description:     n.Description,
		Excerpt:         excerpt,
		HasMore:         more,
		AudioURL:        optional(n.AudioURL),
		AudioPath:       optional(n.AudioPath),
		Transcript:      n.Transcript,
		Summary:         n.Summary,
		HasSummary:      n.Summary != "",
		DurationSeconds: n.DurationSeconds,
		MeetingType:     n.MeetingType,
		Icon:            n.Icon,
		Participants:    participants,
		CreatedAt:       n.CreatedAt,
	}
}

func toQAResponse(qa QAPair) QAResponse {
	return QAResponse{ID: qa.ID, Question: qa.Question, Answer: qa.Answer, CreatedAt: qa.CreatedAt}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
