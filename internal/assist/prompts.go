package assist

import (
	_ "embed"
	"strings"
)

var (
	//go:embed prompts/summary_system.txt
	summarySystem string
	//go:embed prompts/summary_user.txt
	summaryUser string
	//go:embed prompts/title_system.txt
	titleSystem string
	//go:embed prompts/title_user.txt
	titleUser string
	//go:embed prompts/qa_system.txt
	qaSystem string
	//go:embed prompts/qa_user.txt
	qaUser string
)

// render fills {{name}} placeholders in a template.
func render(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func systemPrompt(raw string) string {
	return strings.TrimSpace(raw)
}
