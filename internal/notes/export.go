package notes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"notes-backend/internal/shared/util"
)

// Export formats.
const (
	FormatText = "txt"
	FormatDocx = "docx"
)

const (
	docxFont     = "Calibri"
	docxFontSize = 11
)

var (
	separator = strings.Repeat("=", 50)
	reBold    = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

// ExportFile is a rendered download.
type ExportFile struct {
	Name        string
	ContentType string
	Body        []byte
}

// Export renders the note as plain text or docx.
func (s *Service) Export(ctx context.Context, userID, noteID, fallbackParticipant, format string) (ExportFile, error) {
	note, err := s.Repo.GetByID(ctx, userID, noteID)
	if err != nil {
		return ExportFile{}, storeErr("get note", err)
	}
	if len(note.Participants) == 0 && fallbackParticipant != "" {
		note.Participants = []string{fallbackParticipant}
	}
	now := s.now()

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return ExportFile{
			Name:        util.ExportFileName(note.Title, FormatText),
			ContentType: "text/plain; charset=utf-8",
			Body:        []byte(RenderText(note, now)),
		}, nil
	case FormatDocx:
		body, err := RenderDocx(note, now)
		if err != nil {
			return ExportFile{}, fmt.Errorf("render docx: %w", err)
		}
		return ExportFile{
			Name:        util.ExportFileName(note.Title, FormatDocx),
			ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			Body:        body,
		}, nil
	default:
		return ExportFile{}, invalid("format must be txt or docx")
	}
}

// RenderText produces the plain-text download layout.
func RenderText(n Note, now time.Time) string {
	var b strings.Builder
	b.WriteString(n.Title)
	b.WriteString("\n")
	b.WriteString(separator)
	b.WriteString("\n\n")
	for _, line := range metadataLines(n, now) {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(orDefault(n.Summary, "No summary available"))
	b.WriteString("\n\n")
	b.WriteString(separator)
	b.WriteString("\nTranscript:\n")
	b.WriteString(orDefault(n.Transcript, "No transcript available"))
	return b.String()
}

// RenderDocx renders the same content as a Word document.
func RenderDocx(n Note, now time.Time) ([]byte, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, err
	}

	styledRun(doc.AddParagraph(""), n.Title, true, 16)
	for _, line := range metadataLines(n, now) {
		styledRun(doc.AddParagraph(""), line, false, docxFontSize)
	}
	doc.AddParagraph("")

	for _, line := range strings.Split(orDefault(n.Summary, "No summary available"), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		richText(doc.AddParagraph(""), trimmed)
	}

	doc.AddParagraph("")
	styledRun(doc.AddParagraph(""), "Transcript", true, 14)
	for _, line := range strings.Split(orDefault(n.Transcript, "No transcript available"), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			styledRun(doc.AddParagraph(""), trimmed, false, docxFontSize)
		}
	}

	dir, err := os.MkdirTemp("", "note-export-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "note.docx")
	if err := doc.SaveTo(path); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func metadataLines(n Note, now time.Time) []string {
	participants := "N/A"
	if len(n.Participants) > 0 {
		participants = strings.Join(n.Participants, ", ")
	}
	return []string{
		"Date: " + FormatDate(n.CreatedAt, now),
		"Duration: " + FormatDuration(n.DurationSeconds),
		"Participants: " + participants,
	}
}

// FormatDuration renders seconds as m:ss.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatDate renders "Today", "Yesterday" or "Jan 2, 2006" by calendar day.
func FormatDate(t, now time.Time) string {
	t = t.UTC()
	now = now.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch int(today.Sub(day).Hours() / 24) {
	case 0:
		return "Today"
	case 1:
		return "Yesterday"
	default:
		return t.Format("Jan 2, 2006")
	}
}

func styledRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(strings.ReplaceAll(text, "**", "")).Font(docxFont).Size(size)
	if bold {
		run.Bold(true)
	}
}

// richText keeps **bold** spans from model output.
func richText(p *docx.Paragraph, text string) {
	parts := reBold.Split(text, -1)
	matches := reBold.FindAllStringSubmatch(text, -1)
	for i, part := range parts {
		if part != "" {
			p.AddText(part).Font(docxFont).Size(docxFontSize)
		}
		if i < len(matches) {
			p.AddText(matches[i][1]).Font(docxFont).Size(docxFontSize).Bold(true)
		}
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
