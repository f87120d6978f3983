package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/export"
)

func encodeState(t *testing.T, p *Projection) string {
	t.Helper()
	raw, err := json.Marshal(p.State())
	require.NoError(t, err)
	return string(raw)
}

func TestSanitizeLabel(t *testing.T) {
	assert.Equal(t, "Score", SanitizeLabel("<b>Score</b>"))
	assert.Equal(t, "A&amp;B", SanitizeLabel("A&B"))
	assert.Equal(t, "Tom&#039;s &quot;note&quot;", SanitizeLabel(`  Tom's "note"  `))
	assert.Equal(t, "", SanitizeLabel("<br/>"))
}

func TestProjectionAddCustomColumnIsDeduplicated(t *testing.T) {
	p := NewProjection(RosterFields)
	p.SyncRows([]string{"1", "2"})

	label, added := p.AddCustomColumn("Final Grade")
	require.True(t, added)
	assert.Equal(t, "Final Grade", label)

	_, added = p.AddCustomColumn("  Final Grade ")
	assert.False(t, added)
	_, added = p.AddCustomColumn("<i></i>")
	assert.False(t, added)

	require.Len(t, p.CustomColumns(), 1)
	assert.Equal(t, map[string]string{"Final Grade": ""}, p.Values("1"))
	assert.Equal(t, map[string]string{"Final Grade": ""}, p.Values("2"))
}

func TestProjectionSyncIsIdempotent(t *testing.T) {
	p := NewProjection(RosterFields)
	p.AddCustomColumn("Notes")
	p.SyncRows([]string{"1", "2", "3"})
	require.NoError(t, p.SetCell("2", "Notes", "late"))

	p.SyncRows([]string{"2", "4"})
	first := encodeState(t, p)
	p.SyncRows([]string{"2", "4"})
	assert.Equal(t, first, encodeState(t, p))

	assert.Equal(t, map[string]string{"Notes": "late"}, p.Values("2"))
	assert.Equal(t, map[string]string{"Notes": ""}, p.Values("4"))
	assert.Empty(t, p.Values("1"))
	assert.NotContains(t, p.State().Values, "3")
}

func TestProjectionColumnsOrderAndToggle(t *testing.T) {
	p := NewProjection(RosterFields)
	p.AddCustomColumn("A&B")
	p.AddCustomColumn("Signature")

	require.NoError(t, p.ToggleField("id"))
	assert.Equal(t, []export.Column{
		{Key: "name", Label: "Name"},
		{Key: "A&amp;B", Label: "A&B"},
		{Key: "Signature", Label: "Signature"},
	}, p.Columns())

	require.NoError(t, p.ToggleField("id"))
	require.NoError(t, p.ToggleField("A&amp;B"))
	assert.Equal(t, []string{"ID", "Name", "Signature"}, export.Dataset{Columns: p.Columns()}.Headers())

	err := p.ToggleField("unknown")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestProjectionRemoveCustomColumnDropsValues(t *testing.T) {
	p := NewProjection(RosterFields)
	p.AddCustomColumn("Notes")
	p.SyncRows([]string{"1"})
	require.NoError(t, p.SetCell("1", "Notes", "x"))

	assert.True(t, p.RemoveCustomColumn("Notes"))
	assert.False(t, p.RemoveCustomColumn("Notes"))
	assert.Empty(t, p.Values("1"))
	assert.Len(t, p.Columns(), 2)

	err := p.SetCell("1", "Notes", "y")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestProjectionProjectFillsMissingValues(t *testing.T) {
	p := NewProjection(RosterFields)
	p.AddCustomColumn("Notes")
	p.SyncRows([]string{"7"})
	require.NoError(t, p.SetCell("7", "Notes", "ok"))

	rows := []SourceRow{
		{ID: "7", Values: map[string]string{"id": "7", "name": "Amina Yusuf"}},
		{ID: "8", Values: map[string]string{"id": "8"}},
	}
	assert.Equal(t, [][]string{
		{"7", "Amina Yusuf", "ok"},
		{"8", "", ""},
	}, p.Project(rows))
}

func TestNewProjectionIgnoresUnknownSelection(t *testing.T) {
	p := NewProjection(RosterFields, "name", "bogus")
	assert.Equal(t, []export.Column{{Key: "name", Label: "Name"}}, p.Columns())
}
