package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

type row struct {
	id   int
	name string
	note string
}

var sheet = Sheet[row]{
	Name: "Pacientes",
	Columns: []Column[row]{
		{Header: "ID", Width: 8, Value: func(r row) any { return r.id }},
		{Header: "Nombre", Width: 30, Value: func(r row) any { return r.name }},
		{Header: "Nota", Value: func(r row) any { return r.note }},
	},
}

func open(t *testing.T, b []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWorkbook_HeaderAndRows(t *testing.T) {
	b, err := Workbook(sheet, []row{{1, "María", ""}, {2, "José", "control"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := open(t, b)

	if got := f.GetSheetList(); len(got) != 1 || got[0] != "Pacientes" {
		t.Fatalf("expected single Pacientes sheet, got %v", got)
	}
	rows, err := f.GetRows("Pacientes")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "ID" || rows[0][1] != "Nombre" || rows[0][2] != "Nota" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[1][0] != "1" || rows[1][1] != "María" || len(rows[1]) != 2 {
		t.Errorf("unexpected first row %v", rows[1])
	}
	if rows[2][2] != "control" {
		t.Errorf("unexpected second row %v", rows[2])
	}
}

func TestWorkbook_EmptyHasHeaderOnly(t *testing.T) {
	b, err := Workbook(sheet, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows, err := open(t, b).GetRows("Pacientes")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected header row only, got %d rows", len(rows))
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("examenes"); got != "examenes.xlsx" {
		t.Errorf("expected examenes.xlsx, got %s", got)
	}
}
