package service

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/noah-isme/sma-dashboard-gateway/pkg/export"
	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
)

// Field is a fixed column a view can project.
type Field struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// SourceRow is one entity rendered as display strings keyed by field key.
type SourceRow struct {
	ID     string
	Values map[string]string
}

// ProjectionState is the serialisable form of a projection. Maps encode with sorted keys, so two
// equal states always encode to the same bytes.
type ProjectionState struct {
	Selected []string                     `json:"selected"`
	Custom   []string                     `json:"custom"`
	Values   map[string]map[string]string `json:"values"`
}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

var labelEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// SanitizeLabel trims the label, strips markup and escapes the remaining special characters.
func SanitizeLabel(raw string) string {
	stripped := htmlTag.ReplaceAllString(strings.TrimSpace(raw), "")
	return labelEscaper.Replace(stripped)
}

// Projection tracks which columns a view exports and the values of user-defined columns.
// It is not safe for concurrent use; callers hold the owning session's lock.
type Projection struct {
	defaults []Field
	selected map[string]struct{}
	custom   []string
	values   map[string]map[string]string
}

// NewProjection selects the given default keys, or every default when none are given.
func NewProjection(defaults []Field, selected ...string) *Projection {
	p := &Projection{
		defaults: append([]Field(nil), defaults...),
		selected: make(map[string]struct{}),
		values:   make(map[string]map[string]string),
	}
	if len(selected) == 0 {
		for _, f := range defaults {
			p.selected[f.Key] = struct{}{}
		}
		return p
	}
	for _, key := range selected {
		if p.isDefault(key) {
			p.selected[key] = struct{}{}
		}
	}
	return p
}

func (p *Projection) isDefault(key string) bool {
	for _, f := range p.defaults {
		if f.Key == key {
			return true
		}
	}
	return false
}

func (p *Projection) isCustom(label string) bool {
	for _, c := range p.custom {
		if c == label {
			return true
		}
	}
	return false
}

// ToggleField flips selection of a default field or custom label.
func (p *Projection) ToggleField(key string) error {
	if !p.isDefault(key) && !p.isCustom(key) {
		return appErrors.Validation(fmt.Sprintf("unknown column %q", key))
	}
	if _, ok := p.selected[key]; ok {
		delete(p.selected, key)
	} else {
		p.selected[key] = struct{}{}
	}
	return nil
}

// AddCustomColumn sanitises raw and appends it as a selected custom column seeded with "" for
// every known row. It reports false when the label is empty after sanitising or already taken.
func (p *Projection) AddCustomColumn(raw string) (string, bool) {
	label := SanitizeLabel(raw)
	if label == "" || p.isCustom(label) || p.isDefault(label) {
		return label, false
	}
	p.custom = append(p.custom, label)
	p.selected[label] = struct{}{}
	for _, row := range p.values {
		row[label] = ""
	}
	return label, true
}

// RemoveCustomColumn drops the column and every value held for it.
func (p *Projection) RemoveCustomColumn(label string) bool {
	idx := -1
	for i, c := range p.custom {
		if c == label {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	p.custom = append(p.custom[:idx], p.custom[idx+1:]...)
	delete(p.selected, label)
	for _, row := range p.values {
		delete(row, label)
	}
	return true
}

// SyncRows reconciles custom values with the current row set: new rows are seeded with "" for
// every custom column, rows no longer present are pruned, and labels no longer custom are pruned.
// Repeating the call with the same rows leaves the state unchanged.
func (p *Projection) SyncRows(rowIDs []string) {
	present := make(map[string]struct{}, len(rowIDs))
	for _, id := range rowIDs {
		present[id] = struct{}{}
		row, ok := p.values[id]
		if !ok {
			row = make(map[string]string, len(p.custom))
			p.values[id] = row
		}
		for _, label := range p.custom {
			if _, ok := row[label]; !ok {
				row[label] = ""
			}
		}
		for label := range row {
			if !p.isCustom(label) {
				delete(row, label)
			}
		}
	}
	for id := range p.values {
		if _, ok := present[id]; !ok {
			delete(p.values, id)
		}
	}
}

// SetCell edits a custom value for one row.
func (p *Projection) SetCell(rowID, label, value string) error {
	if !p.isCustom(label) {
		return appErrors.Validation(fmt.Sprintf("unknown custom column %q", label))
	}
	row, ok := p.values[rowID]
	if !ok {
		return appErrors.Validation(fmt.Sprintf("unknown row %q", rowID))
	}
	row[label] = value
	return nil
}

// Columns returns the selected defaults in default order followed by the selected custom columns
// in insertion order. Labels are unescaped for display; keys keep their stored form.
func (p *Projection) Columns() []export.Column {
	cols := make([]export.Column, 0, len(p.defaults)+len(p.custom))
	for _, f := range p.defaults {
		if _, ok := p.selected[f.Key]; ok {
			cols = append(cols, export.Column{Key: f.Key, Label: html.UnescapeString(f.Label)})
		}
	}
	for _, label := range p.custom {
		if _, ok := p.selected[label]; ok {
			cols = append(cols, export.Column{Key: label, Label: html.UnescapeString(label)})
		}
	}
	return cols
}

// Cell resolves one column of one row: custom columns read the session values, defaults read
// the row itself. Missing values become "".
func (p *Projection) Cell(row SourceRow, col export.Column) string {
	if p.isCustom(col.Key) {
		return p.values[row.ID][col.Key]
	}
	return row.Values[col.Key]
}

// Project renders rows into cells in Columns order.
func (p *Projection) Project(rows []SourceRow) [][]string {
	cols := p.Columns()
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(cols))
		for j, col := range cols {
			cells[j] = p.Cell(row, col)
		}
		out[i] = cells
	}
	return out
}

// Defaults lists the fixed fields with their selection flag.
func (p *Projection) Defaults() []SelectableField {
	out := make([]SelectableField, len(p.defaults))
	for i, f := range p.defaults {
		_, ok := p.selected[f.Key]
		out[i] = SelectableField{Field: f, Selected: ok}
	}
	return out
}

// CustomColumns lists the custom labels with their selection flag.
func (p *Projection) CustomColumns() []SelectableField {
	out := make([]SelectableField, len(p.custom))
	for i, label := range p.custom {
		_, ok := p.selected[label]
		out[i] = SelectableField{Field: Field{Key: label, Label: html.UnescapeString(label)}, Selected: ok}
	}
	return out
}

// Values returns a copy of the custom values of one row.
func (p *Projection) Values(rowID string) map[string]string {
	row := p.values[rowID]
	out := make(map[string]string, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// State snapshots the projection.
func (p *Projection) State() ProjectionState {
	state := ProjectionState{
		Selected: make([]string, 0, len(p.selected)),
		Custom:   append([]string{}, p.custom...),
		Values:   make(map[string]map[string]string, len(p.values)),
	}
	for _, col := range p.Columns() {
		state.Selected = append(state.Selected, col.Key)
	}
	for id := range p.values {
		state.Values[id] = p.Values(id)
	}
	return state
}

// snapshot deep-copies the projection so it can be read after the session lock is released.
func (p *Projection) snapshot() *Projection {
	cp := &Projection{
		defaults: append([]Field(nil), p.defaults...),
		selected: make(map[string]struct{}, len(p.selected)),
		custom:   append([]string(nil), p.custom...),
		values:   make(map[string]map[string]string, len(p.values)),
	}
	for k := range p.selected {
		cp.selected[k] = struct{}{}
	}
	for id := range p.values {
		cp.values[id] = p.Values(id)
	}
	return cp
}

// SelectableField is a column choice shown to the user.
type SelectableField struct {
	Field
	Selected bool `json:"selected"`
}
