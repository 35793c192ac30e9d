package wizard

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spboyer/pulse/internal/models"
	"github.com/spboyer/pulse/internal/projectconfig"
	"github.com/spboyer/pulse/internal/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAnswers_ConfigIsValid(t *testing.T) {
	cfg := DefaultAnswers().Config()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, projectconfig.DefaultTitle, cfg.Report.Title)
	require.Len(t, cfg.Sources, 3)
	assert.Equal(t, "meeting_notes", cfg.Sources[0].Name)
	assert.Equal(t, "data/meeting_notes.txt", cfg.Sources[0].Path)
	assert.Equal(t, "tracker", cfg.Sources[1].Kind)
	assert.Equal(t, "chat", cfg.Sources[2].Kind)
}

func TestConfig_KeepsKindOrder(t *testing.T) {
	a := Answers{
		Title:    "Ops Weekly",
		Kinds:    []models.SourceKind{models.SourceKindCSV, models.SourceKindNotes},
		Sections: []string{"dashboard", "metrics"},
		Engine:   projectconfig.EngineMock,
		Model:    "gpt-4o-mini",
	}
	cfg := a.Config()
	require.NoError(t, cfg.Validate())

	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "meeting_notes", cfg.Sources[0].Name)
	assert.Equal(t, "metrics", cfg.Sources[1].Name)
	assert.Equal(t, []string{"dashboard", "metrics"}, cfg.Report.Sections)
	assert.Equal(t, projectconfig.EngineMock, cfg.AI.Engine)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
}

func TestSampleFiles_IngestCleanly(t *testing.T) {
	a := DefaultAnswers()
	a.Kinds = append(a.Kinds, models.SourceKindCSV)

	dir := t.TempDir()
	for rel, content := range a.SampleFiles() {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	cfg := a.Config()
	cfg.BaseDir = dir
	descs, err := cfg.Descriptors()
	require.NoError(t, err)
	require.Len(t, descs, 4)

	for _, d := range descs {
		block, err := sources.New(d).Ingest(context.Background())
		require.NoError(t, err)
		assert.Equal(t, models.BlockStatusOK, block.Status, "%s: %s", d.Name, block.ErrorDetail)
		assert.Positive(t, block.Records, d.Name)
	}
}
