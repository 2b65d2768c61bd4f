package tabular

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/steveyegge/ghimport/internal/types"
	"github.com/steveyegge/ghimport/internal/validation"
)

const header = "Title,Description,Type,Labels,Assignee,Milestone,Repository\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseCSV(t *testing.T) {
	input := header +
		"Auth epic,Everything login,Epic,security;backend,alice,v1,\n" +
		"Login form,  Build it  ,Task,ui,,,web\n"

	batch, findings := Parse(strings.NewReader(input), FormatCSV)
	require.Empty(t, findings)
	require.Equal(t, 2, batch.Len())

	assert.Equal(t, []string{"Title", "Description", "Type", "Labels", "Assignee", "Milestone", "Repository"}, batch.Headers)

	first := batch.Records[0]
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, "Auth epic", first.Get(types.FieldTitle))
	assert.Equal(t, "security;backend", first.Get(types.FieldLabels))

	second := batch.Records[1]
	assert.Equal(t, 3, second.Row)
	assert.Equal(t, "  Build it  ", second.Get(types.FieldDescription), "values are kept raw")
	assert.Equal(t, "web", second.Get(types.FieldRepository))
}

func TestParseCSV_MissingMilestoneColumn(t *testing.T) {
	input := "Title,Description,Type,Labels,Assignee\n" +
		"Login form,desc,Task,ui,alice\n"

	batch, findings := Parse(strings.NewReader(input), FormatCSV)
	require.Len(t, findings, 1)
	assert.Equal(t, types.Finding{
		Row:      0,
		Field:    validation.FieldHeaders,
		Message:  "Missing required columns: Milestone",
		Severity: types.SeverityError,
	}, findings[0])
	assert.Equal(t, 0, batch.Len(), "no data rows are retained when columns are missing")
}

func TestParseCSV_BlankRowsKeepNumbering(t *testing.T) {
	input := header +
		"First,d,Task,,,,\n" +
		",,,,,,\n" +
		"   ,  ,,,,,\n" +
		"Fourth,d,Task,,,,\n"

	batch, findings := Parse(strings.NewReader(input), FormatCSV)
	require.Empty(t, findings)
	require.Equal(t, 2, batch.Len())
	assert.Equal(t, 2, batch.Records[0].Row)
	assert.Equal(t, 5, batch.Records[1].Row)
}

func TestParseCSV_RaggedRowsAndBOM(t *testing.T) {
	input := "\xEF\xBB\xBF" + " Title ,Description,Type,Labels,Assignee,Milestone\n" +
		"Short,d,Task\n"

	batch, findings := Parse(strings.NewReader(input), FormatCSV)
	require.Empty(t, findings)
	require.Equal(t, 1, batch.Len())
	rec := batch.Records[0]
	assert.Equal(t, "Short", rec.Get(types.FieldTitle), "BOM and header whitespace are stripped")
	assert.Equal(t, "", rec.Get(types.FieldMilestone))
}

func TestParseCSV_Empty(t *testing.T) {
	batch, findings := Parse(strings.NewReader(""), FormatCSV)
	require.Len(t, findings, 1)
	assert.Equal(t, "No columns found", findings[0].Message)
	assert.Equal(t, 0, batch.Len())
}

func TestParseCSV_Malformed(t *testing.T) {
	input := header + "\"unterminated,d,Task,,,,\n"

	_, findings := Parse(strings.NewReader(input), FormatCSV)
	require.Len(t, findings, 1)
	assert.Equal(t, validation.FieldFile, findings[0].Field)
	assert.True(t, strings.HasPrefix(findings[0].Message, "Failed to read file: "), findings[0].Message)
}

func TestParseFile_Missing(t *testing.T) {
	batch, findings := ParseFile(filepath.Join(t.TempDir(), "nope.csv"))
	require.Len(t, findings, 1)
	assert.Equal(t, 0, findings[0].Row)
	assert.Equal(t, validation.FieldFile, findings[0].Field)
	assert.Equal(t, types.SeverityError, findings[0].Severity)
	assert.NotNil(t, batch)
}

func TestParseFile_CSV(t *testing.T) {
	path := writeFile(t, "items.csv", header+"One,d,Task,,,,\n")

	batch, findings := ParseFile(path)
	require.Empty(t, findings)
	assert.Equal(t, 1, batch.Len())
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatXLSX, FormatFromPath("plan.xlsx"))
	assert.Equal(t, FormatXLSX, FormatFromPath("PLAN.XLSX"))
	assert.Equal(t, FormatCSV, FormatFromPath("plan.csv"))
	assert.Equal(t, FormatCSV, FormatFromPath("plan"))
}

func TestParseFile_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Title", "Description", "Type", "Labels", "Assignee", "Milestone"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Auth epic", "desc", "Epic", "security", "alice", "v1"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{"Login form", "desc", "Task", "", "", ""}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	batch, findings := ParseFile(path)
	require.Empty(t, findings)
	require.Equal(t, 2, batch.Len())
	assert.Equal(t, 2, batch.Records[0].Row)
	assert.Equal(t, "alice", batch.Records[0].Get(types.FieldAssignee))
	assert.Equal(t, 4, batch.Records[1].Row)
	assert.Equal(t, "Login form", batch.Records[1].Get(types.FieldTitle))
}
