package notification

import (
	"bytes"
	"errors"
	"fmt"
	htmltmpl "html/template"
	texttmpl "text/template"

	"github.com/crackcu/portal-backend/internal/model"
)

var ErrNoRecipient = errors.New("notification: candidate has no email address")

const resultText = `Hi {{.Name}},

Your result for "{{.ExamTitle}}" is ready.

{{range .View.Sections}}{{.Label}}: {{printf "%.2f" .Marks}}{{if .Passed}}{{if deref .Passed}} (passed){{else}} (below cutoff){{end}}{{end}}
{{end}}
Total:   {{printf "%.2f" .View.TotalMarks}}
Penalty: {{printf "%.2f" .View.Penalty}}
Net:     {{printf "%.2f" .View.NetMarks}}

{{if .View.Passed}}Congratulations, you passed.{{else}}You did not pass this time.{{end}}

Review your answers: {{.ReviewURL}}

{{.AppName}}
`

const resultHTML = `<p>Hi {{.Name}},</p>
<p>Your result for <strong>{{.ExamTitle}}</strong> is ready.</p>
<table>
{{range .View.Sections}}<tr><td>{{.Label}}</td><td>{{printf "%.2f" .Marks}}</td></tr>
{{end}}<tr><td>Total</td><td>{{printf "%.2f" .View.TotalMarks}}</td></tr>
<tr><td>Penalty</td><td>{{printf "%.2f" .View.Penalty}}</td></tr>
<tr><td><strong>Net</strong></td><td><strong>{{printf "%.2f" .View.NetMarks}}</strong></td></tr>
</table>
<p>{{if .View.Passed}}Congratulations, you passed.{{else}}You did not pass this time.{{end}}</p>
<p><a href="{{.ReviewURL}}">Review your answers</a></p>
<p>{{.AppName}}</p>
`

var funcs = map[string]any{
	"deref": func(b *bool) bool { return b != nil && *b },
}

var (
	textTmpl = texttmpl.Must(texttmpl.New("result.txt").Funcs(funcs).Option("missingkey=error").Parse(resultText))
	htmlTmpl = htmltmpl.Must(htmltmpl.New("result.html").Funcs(funcs).Option("missingkey=error").Parse(resultHTML))
)

type resultData struct {
	AppName   string
	Name      string
	ExamTitle string
	ReviewURL string
	View      model.ResultView
}

// Renderer turns a graded result into a result mail.
type Renderer struct {
	AppName         string
	FrontendBaseURL string
}

// RenderResult builds the result mail for one candidate.
func (r Renderer) RenderResult(to model.CandidateStatus, result *model.GradedResult, examTitle string) (*Message, error) {
	if to.Email == "" {
		return nil, ErrNoRecipient
	}

	name := to.FullName
	if name == "" {
		name = "candidate"
	}
	data := resultData{
		AppName:   r.AppName,
		Name:      name,
		ExamTitle: examTitle,
		ReviewURL: fmt.Sprintf("%s/submissions/%d/review", r.FrontendBaseURL, result.ID),
		View:      model.NewResultView(result, examTitle, false),
	}

	var text, html bytes.Buffer
	if err := textTmpl.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("render text: %w", err)
	}
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	return &Message{
		ToName:  to.FullName,
		ToEmail: to.Email,
		Subject: "Your result for " + examTitle,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
