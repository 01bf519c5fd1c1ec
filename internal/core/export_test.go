package core

import (
	"strings"
	"testing"
)

func TestExportCSV_Scenario(t *testing.T) {
	records := []EntityRecord{
		{
			ID:          1,
			EntityType:  "Email",
			EntryNumber: 1,
			Fields:      FieldMap{{Name: "email", Value: StringValue("a@x.com")}},
			InfoLeak:    "siteA",
		},
	}

	doc, err := ExportCSV(records)
	if err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}

	want := "Entity Type,email,InfoLeak\nEmail,a@x.com,siteA\n"
	if string(doc) != want {
		t.Errorf("ExportCSV() = %q, want %q", doc, want)
	}
}

func TestExportCSV_SortedColumnUnionAndMissingFields(t *testing.T) {
	records := []EntityRecord{
		{
			ID:         1,
			EntityType: "Email",
			Fields: FieldMap{
				{Name: "email", Value: StringValue("a@x.com")},
				{Name: "zip", Value: StringValue("10110")},
			},
			InfoLeak: "siteA",
		},
		{
			ID:         2,
			EntityType: "Phone",
			Fields: FieldMap{
				{Name: "phone", Value: NumberValue("123")},
			},
			InfoLeak: "siteB",
		},
	}

	doc, err := ExportCSV(records)
	if err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(doc), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), doc)
	}

	// Field union is sorted lexicographically between the synthetic columns.
	if lines[0] != "Entity Type,email,phone,zip,InfoLeak" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "Email,a@x.com,,10110,siteA" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "Phone,,123,,siteB" {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestExportCSV_QuotesValuesWithCommas(t *testing.T) {
	records := []EntityRecord{
		{
			ID:         1,
			EntityType: "Address",
			Fields: FieldMap{
				{Name: "addr", Value: StringValue("Jl. Sudirman, Blok A")},
			},
		},
	}

	doc, err := ExportCSV(records)
	if err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}
	want := "Entity Type,addr,InfoLeak\nAddress,\"Jl. Sudirman, Blok A\",\n"
	if string(doc) != want {
		t.Errorf("ExportCSV() = %q, want %q", doc, want)
	}
}

func TestExportCSV_NoRecords(t *testing.T) {
	// Every selected id vanished: header-only document, no data rows.
	doc, err := ExportCSV(nil)
	if err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}
	if string(doc) != "Entity Type,InfoLeak\n" {
		t.Errorf("ExportCSV(nil) = %q", doc)
	}
}
