package util

import "testing"

func TestExportFileName(t *testing.T) {
	tests := []struct {
		name  string
		title string
		ext   string
		want  string
	}{
		{name: "spaces and colon", title: "Voice: Weekly Sync", ext: "txt", want: "Voice__Weekly_Sync.txt"},
		{name: "accents folded", title: "Café Résumé", ext: ".txt", want: "Cafe_Resume.txt"},
		{name: "emoji replaced", title: "🎙️ Notes", ext: "docx", want: "__Notes.docx"},
		{name: "empty title", title: "", ext: "txt", want: "note.txt"},
		{name: "no extension", title: "abc", ext: "", want: "abc"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := ExportFileName(tt.title, tt.ext); got != tt.want {
				t.Fatalf("ExportFileName(%q, %q) = %q, want %q", tt.title, tt.ext, got, tt.want)
			}
		})
	}
}
