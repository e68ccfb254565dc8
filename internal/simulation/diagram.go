package simulation

import (
	"fmt"
	"io"
	"text/template"

	"github.com/Ofi-Services/unified-backend/model"
)

// Direction is the layout direction of a Mermaid state diagram.
type Direction string

// Diagram directions.
const (
	TopToBottom Direction = "TB"
	LeftToRight Direction = "LR"
)

type diagramTransition struct {
	From  string
	To    string
	Label string
}

type diagramData struct {
	Direction   Direction
	Transitions []diagramTransition
	Terminals   []string
}

var diagramTemplate = template.Must(template.New("diagram").Parse(`stateDiagram-v2
	direction {{.Direction}}
	[*] --> Start
{{- range .Transitions}}
	{{.From}} --> {{.To}}{{if .Label}}: {{.Label}}{{end}}
{{- end}}
{{- range .Terminals}}
	{{.}} --> [*]
{{- end}}
`))

// WriteDiagram renders g as a Mermaid stateDiagram-v2. Start fans out to the
// entry stage of each workflow type; multi-edge stages label their edges
// with the branch percentage.
func WriteDiagram(w io.Writer, g *Graph, d Direction) error {
	if d == "" {
		d = TopToBottom
	}
	data := diagramData{Direction: d}

	for _, t := range model.WorkflowTypes {
		entry, ok := g.Entry(t)
		if !ok {
			continue
		}
		data.Transitions = append(data.Transitions, diagramTransition{
			From:  Start.String(),
			To:    entry.String(),
			Label: string(t),
		})
	}

	for _, s := range Stages() {
		if s == Start {
			continue
		}
		node := g.Node(s)
		if node.Terminal() {
			data.Terminals = append(data.Terminals, s.String())
			continue
		}
		for _, e := range node.Edges {
			tr := diagramTransition{From: s.String(), To: e.To.String()}
			if len(node.Edges) > 1 {
				tr.Label = fmt.Sprintf("%d%%", e.Percent)
			}
			data.Transitions = append(data.Transitions, tr)
		}
	}

	return diagramTemplate.Execute(w, data)
}
