package publish

import (
	"html/template"
	"os"

	"nightly/internal/apperrors"
)

// fragmentTemplate renders the single list item the static site includes to
// link the most recent archived report.
var fragmentTemplate = template.Must(template.New("fragment").Parse(
	`<li><a href="{{.}}">{{.}}</a></li>
`))

// WriteFragment replaces the fragment file with a link to the archived
// report. The file is removed first so a render failure cannot leave a
// stale link behind.
func WriteFragment(path, archived string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return apperrors.Internal("remove fragment", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return apperrors.Internal("create fragment", err)
	}
	defer f.Close()

	if err := fragmentTemplate.Execute(f, archived); err != nil {
		return apperrors.Internal("render fragment", err)
	}
	return nil
}
