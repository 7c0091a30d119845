package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
)

// reportTemplate renders the status report. The id-based colors follow the
// historical report so existing dashboards keep their look.
var reportTemplate = template.Must(template.New("report").Parse(`<style>
    table,th,td { border: 2px solid black; text-align: center; }
    table { border-collapse: collapse; width: 90%; }
    th { color: white; background-color: gray; }
    td { height: 40px; }
    tr:nth-child(even) { background-color: #D0D0D0; }
    tr:nth-child(odd) { background-color: #F0F0F0; }
    #green { background-color: green; color: white; }
    #yellow { background-color: yellow; }
    #red { background-color: red; color: white; }
</style>
<font size="+2"><b>Nightly Performance Status Report on {{.Machine}}</b></font>
<br><br>
<table>
    <caption><font size="+2"><b>Status</b></font></caption>
    <tr>
        <th>Name</th>
        <th>Run Test</th>
        <th>Performance Tests (Passes/Warnings/Fails)</th>
    </tr>
{{- range .Cases}}
    <tr>
        <td>{{.Name}}</td>
        <td id="{{if .RunPassed}}green{{else}}red{{end}}">{{if .RunPassed}}Passed{{else}}Failed{{end}}</td>
        <td id="{{.Status.Color}}">{{.Counts}}</td>
    </tr>
{{- end}}
</table>
{{- range .Cases}}
{{- if not .RunPassed}}
<br><br>
<font size="+1">{{.Name}} test failed...</font>
{{- else}}
<br><br>
<table>
    <caption><font size="+2"><b>{{.Name}} Timers (s)</b></font></caption>
    <tr>
        <th>Timer</th>
        <th>Measured</th>
        <th>Mean</th>
        <th>Std</th>
    </tr>
{{- range .Timers}}
    <tr>
        <td>{{.Timer}}</td>
        <td id="{{.Status.Color}}">{{printf "%g" .Measured}}</td>
        <td>{{printf "%g" .Mean}}</td>
        <td>{{printf "%g" .Std}}</td>
    </tr>
{{- end}}
</table>
{{- end}}
{{- end}}
{{- if .DashboardURL}}
<br>
Click <a href="{{.DashboardURL}}">here</a> for test logs.
{{- end}}
`))

// HTML renders the report document.
func (r *Report) HTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders the report and writes it to path.
func (r *Report) WriteFile(path string) error {
	html, err := r.HTML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, html, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
