package sendgrid

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"github.com/target/mmk-interviews/internal/domain/model"
)

var reportTemplate = template.Must(template.New("report").Parse(`<h2>Interview Report -- ID: {{.SessionID}}</h2>
<p><strong>Overall Average Rating: {{.Average}}/10</strong></p><hr>
<table border="1" cellpadding="10" cellspacing="0" style="border-collapse: collapse; width: 100%;">
<thead><tr><th>Question</th><th>Answer</th><th>Rating</th><th>Feedback</th></tr></thead>
<tbody>
{{- range .Rows}}
<tr><td>{{.Question}}</td><td>{{.Answer}}</td><td>{{.Rating}}/10</td><td>{{.Feedback}}</td></tr>
{{- end}}
</tbody></table>
`))

var inviteTemplate = template.Must(template.New("invite").Parse(`<h3>Hello,</h3>
<p>You have been invited to complete an automated AI interview.</p>
<p>Please click the link below to begin:</p>
<a href="{{.URL}}" style="padding: 12px 22px; background-color: #007bff; color: white; text-decoration: none; border-radius: 5px; font-weight: bold;">Start Your Interview</a>
<p>{{.URL}}</p>
<p>Good luck!</p>
`))

type reportRow struct {
	Question string
	Answer   string
	Rating   string
	Feedback string
}

// RenderReport renders the employer report as HTML. Model output is escaped.
func RenderReport(report model.Report) (string, error) {
	rows := make([]reportRow, 0, len(report.Results))
	for _, res := range report.Results {
		rows = append(rows, reportRow{
			Question: orNA(res.Question),
			Answer:   orNA(res.Answer),
			Rating:   ratingText(res.Evaluation.Rating),
			Feedback: orNA(res.Evaluation.Feedback),
		})
	}

	var buf bytes.Buffer
	err := reportTemplate.Execute(&buf, map[string]any{
		"SessionID": report.SessionID,
		"Average":   strconv.FormatFloat(report.AverageRating, 'f', 1, 64),
		"Rows":      rows,
	})
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

// RenderInvite renders the applicant invitation as HTML.
func RenderInvite(inv model.Invitation) (string, error) {
	var buf bytes.Buffer
	if err := inviteTemplate.Execute(&buf, map[string]any{"URL": inv.InterviewURL}); err != nil {
		return "", fmt.Errorf("render invite: %w", err)
	}
	return buf.String(), nil
}

func ratingText(r model.Rating) string {
	if !r.Valid {
		return "N/A"
	}
	return strconv.Itoa(r.Value)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
