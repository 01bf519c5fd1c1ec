package core

import "testing"

func TestFlatten_RecordCountAndNumbering(t *testing.T) {
	raw := &RawResponse{
		NumOfResults: 6,
		Groups: []EntityGroup{
			{Name: "Email leak", InfoLeak: "siteA", Data: []FieldMap{
				{{Name: "email", Value: StringValue("a@x.com")}},
				{{Name: "email", Value: StringValue("b@x.com")}},
				{{Name: "email", Value: StringValue("c@x.com")}},
			}},
			{Name: "Phone leak", InfoLeak: "siteB", Data: []FieldMap{
				{{Name: "phone", Value: StringValue("123")}},
			}},
			{Name: "Address leak", Data: []FieldMap{
				{{Name: "addr", Value: StringValue("x")}},
				{{Name: "addr", Value: StringValue("y")}},
			}},
		},
	}

	records := Flatten(raw)

	if len(records) != 6 {
		t.Fatalf("got %d records, want 6", len(records))
	}

	// Entry number equals the 1-based source group position, shared by every
	// record of a group.
	wantEntry := []int{1, 1, 1, 2, 3, 3}
	wantType := []string{"Email leak", "Email leak", "Email leak", "Phone leak", "Address leak", "Address leak"}
	for i, rec := range records {
		if rec.EntryNumber != wantEntry[i] {
			t.Errorf("record %d EntryNumber = %d, want %d", i, rec.EntryNumber, wantEntry[i])
		}
		if rec.EntityType != wantType[i] {
			t.Errorf("record %d EntityType = %q, want %q", i, rec.EntityType, wantType[i])
		}
		if rec.ID != int64(i+1) {
			t.Errorf("record %d ID = %d, want %d", i, rec.ID, i+1)
		}
	}

	if records[0].InfoLeak != "siteA" || records[3].InfoLeak != "siteB" {
		t.Errorf("InfoLeak not carried from group: %q / %q", records[0].InfoLeak, records[3].InfoLeak)
	}
	if records[4].InfoLeak != "" {
		t.Errorf("record 4 InfoLeak = %q, want empty", records[4].InfoLeak)
	}
}

func TestFlatten_EmptyResponse(t *testing.T) {
	if got := Flatten(&RawResponse{}); len(got) != 0 {
		t.Errorf("Flatten(empty) = %d records, want 0", len(got))
	}
}

func TestFlatten_GroupWithNoEntries(t *testing.T) {
	raw := &RawResponse{
		Groups: []EntityGroup{
			{Name: "Empty"},
			{Name: "Phone", Data: []FieldMap{{{Name: "phone", Value: StringValue("1")}}}},
		},
	}

	records := Flatten(raw)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	// The empty group still occupies position 1; the phone group is number 2.
	if records[0].EntryNumber != 2 {
		t.Errorf("EntryNumber = %d, want 2", records[0].EntryNumber)
	}
}

func TestFlatten_Scenario(t *testing.T) {
	raw, err := ParseRawResponse([]byte(
		`{"NumOfResults": 2, "List": {"Email": {"Data": [{"email":"a@x.com"}], "InfoLeak": "siteA"}, "Phone": {"Data":[{"phone":"123"}], "InfoLeak": "siteB"}}}`,
	))
	if err != nil {
		t.Fatalf("ParseRawResponse() error = %v", err)
	}

	records := Flatten(raw)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	email := records[0]
	if email.EntryNumber != 1 || email.EntityType != "Email" || email.InfoLeak != "siteA" {
		t.Errorf("unexpected first record: %+v", email)
	}
	if v, ok := email.Fields.Get("email"); !ok || v.String() != "a@x.com" {
		t.Errorf("first record email = %v, want a@x.com", v)
	}

	phone := records[1]
	if phone.EntryNumber != 2 || phone.EntityType != "Phone" || phone.InfoLeak != "siteB" {
		t.Errorf("unexpected second record: %+v", phone)
	}
	if v, ok := phone.Fields.Get("phone"); !ok || v.String() != "123" {
		t.Errorf("second record phone = %v, want 123", v)
	}
}
