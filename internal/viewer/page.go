package viewer

import (
	"embed"
	"html/template"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/sells-group/proviewer/internal/confidence"
	"github.com/sells-group/proviewer/internal/model"
	"github.com/sells-group/proviewer/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTmpl = template.Must(template.New("page.html").ParseFS(templateFS, "templates/page.html"))

// PageOptions are the static settings of the page.
type PageOptions struct {
	Title             string
	Height            string
	MaxSequenceLength int
	ActiveTab         model.Flow
}

// Notice is a message shown next to a flow's controls.
type Notice struct {
	Text  string `json:"text"`
	Level string `json:"level"` // "warning" or "error"
}

// Panel is everything the template needs to render one flow.
type Panel struct {
	Flow     model.Flow
	Title    string
	Present  bool
	Record   model.StructureRecord
	Score    string
	Summary  confidence.Summary
	Key      string
	Download Download
	Notice   *Notice
}

// Page is the template model of the whole page.
type Page struct {
	PageOptions
	Sequence    string
	SequenceLen int
	Accession   string
	UploadGen   int
	Panels      []Panel
}

// Describer turns an acquisition error into a user-facing notice.
type Describer func(err error) Notice

var flowTitles = map[model.Flow]string{
	model.FlowPredict: "Predict",
	model.FlowUpload:  "Upload",
	model.FlowFetch:   "AlphaFold DB",
}

// BuildPage derives the page model from a session snapshot. Scores and keys
// are recomputed on every call.
func BuildPage(sess session.Session, opts PageOptions, describe Describer) Page {
	if opts.ActiveTab == "" {
		opts.ActiveTab = model.FlowPredict
	}
	p := Page{
		PageOptions: opts,
		Sequence:    sess.Inputs.Sequence,
		SequenceLen: utf8.RuneCountInString(strings.TrimSpace(sess.Inputs.Sequence)),
		Accession:   sess.Inputs.Accession,
		UploadGen:   sess.UploadGen,
	}
	for _, flow := range model.AllFlows() {
		p.Panels = append(p.Panels, BuildPanel(flow, sess.State(flow), describe))
	}
	return p
}

// BuildPanel derives one flow's panel from its state.
func BuildPanel(flow model.Flow, st session.State, describe Describer) Panel {
	panel := Panel{Flow: flow, Title: flowTitles[flow]}

	if err := session.ErrorOf(st); err != nil && describe != nil {
		n := describe(err)
		panel.Notice = &n
	}

	rec, ok := session.RecordOf(st)
	if !ok {
		return panel
	}
	panel.Present = true
	panel.Record = rec
	panel.Key = Key(string(flow), rec.Content, rec.Format)
	panel.Download = DownloadFor(flow, rec)
	if sum, ok := confidence.Summarize(rec.Content, rec.Format); ok {
		panel.Summary = sum
		panel.Score = confidence.Format(sum.Mean, true)
	}
	return panel
}

// Render writes the HTML page.
func Render(w io.Writer, page Page) error {
	if err := pageTmpl.Execute(w, page); err != nil {
		return eris.Wrap(err, "viewer: render page")
	}
	return nil
}
