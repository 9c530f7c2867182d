package crew

import (
	"bytes"
	_ "embed"
	"text/template"
)

//go:embed producer_system.tmpl
var producerSystemTemplateContent string

//go:embed producer_user.tmpl
var producerUserTemplateContent string

//go:embed critic_system.tmpl
var criticSystemTemplateContent string

//go:embed critic_user.tmpl
var criticUserTemplateContent string

// PromptData contains the data passed to the crew templates.
type PromptData struct {
	// Subject is the session subject text.
	Subject string

	// Round is the 1-indexed round number.
	Round int

	// Draft is the current draft as JSON. For the producer it is empty in round 1. For the
	// critic it is the text the producer just wrote.
	Draft string

	// Feedback is the reviewer feedback of the previous round. Empty for the critic.
	Feedback string
}

// Templates holds the system and user prompt templates of one role.
type Templates struct {
	System *template.Template
	User   *template.Template
}

// DefaultProducerTemplates are the analyst prompts. They ask for the slide JSON and revise
// the current draft against the feedback from round 2 on.
var DefaultProducerTemplates = Templates{
	System: template.Must(template.New("producer_system").Parse(producerSystemTemplateContent)),
	User:   template.Must(template.New("producer_user").Parse(producerUserTemplateContent)),
}

// DefaultCriticTemplates are the reviewer prompts. They ask for a 1 to 5 rating, comments
// keyed by element path, and a summary.
var DefaultCriticTemplates = Templates{
	System: template.Must(template.New("critic_system").Parse(criticSystemTemplateContent)),
	User:   template.Must(template.New("critic_user").Parse(criticUserTemplateContent)),
}

// ExecuteTemplate executes a template with the given data and returns the result.
func ExecuteTemplate(tmpl *template.Template, data PromptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
