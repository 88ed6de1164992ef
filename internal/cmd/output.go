package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/felixgeelhaar/vulnark/internal/notify"
	"github.com/felixgeelhaar/vulnark/internal/tui"
	"github.com/felixgeelhaar/vulnark/internal/ux"
)

// detail is a two-column field/value listing for a single record.
type detail [][]string

func (d detail) Header() []string { return []string{"Field", "Value"} }
func (d detail) Rows() [][]string { return d }

var _ ux.Tabular = detail(nil)

// fields lists the JSON fields of v, for records without a hand-written
// detail view.
func fields(v any) (tui.Page, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return tui.Page{}, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return tui.Page{}, fmt.Errorf("%T is not a record: %w", v, err)
	}
	p := tui.MapPage(m)
	p.Columns = detail(nil).Header()
	return p, nil
}

// section writes a heading followed by t.
func section(w io.Writer, f ux.Formatter, title string, t ux.Tabular) error {
	fmt.Fprintf(w, "\n%s\n", title)
	if len(t.Rows()) == 0 {
		_, err := fmt.Fprintln(w, "  (none)")
		return err
	}
	return f.Format(t)
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// text returns a catalog message in the configured locale.
func (a *app) text(key notify.Key) string {
	return notify.NewLocalizer(a.cfg.UI.Locale).Text(key)
}
