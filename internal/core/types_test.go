package core

import (
	"encoding/json"
	"testing"
)

func TestParseRawResponse_PreservesGroupOrder(t *testing.T) {
	raw := []byte(`{
		"NumOfResults": 3,
		"List": {
			"Zeta Leak": {"Data": [{"a": "1"}], "InfoLeak": "siteZ"},
			"Alpha Leak": {"Data": [{"b": "2"}], "InfoLeak": "siteA"},
			"Mid Leak": {"Data": [{"c": "3"}]}
		}
	}`)

	resp, err := ParseRawResponse(raw)
	if err != nil {
		t.Fatalf("ParseRawResponse() error = %v", err)
	}

	if resp.NumOfResults != 3 {
		t.Errorf("NumOfResults = %d, want 3", resp.NumOfResults)
	}

	wantNames := []string{"Zeta Leak", "Alpha Leak", "Mid Leak"}
	if len(resp.Groups) != len(wantNames) {
		t.Fatalf("got %d groups, want %d", len(resp.Groups), len(wantNames))
	}
	for i, want := range wantNames {
		if resp.Groups[i].Name != want {
			t.Errorf("group %d name = %q, want %q", i, resp.Groups[i].Name, want)
		}
	}

	if resp.Groups[0].InfoLeak != "siteZ" {
		t.Errorf("group 0 InfoLeak = %q, want %q", resp.Groups[0].InfoLeak, "siteZ")
	}
	if resp.Groups[2].InfoLeak != "" {
		t.Errorf("group 2 InfoLeak = %q, want empty", resp.Groups[2].InfoLeak)
	}
}

func TestParseRawResponse_PreservesFieldOrder(t *testing.T) {
	raw := []byte(`{
		"NumOfResults": 1,
		"List": {
			"Email": {"Data": [{"zip": "10110", "email": "a@x.com", "city": "Jakarta"}]}
		}
	}`)

	resp, err := ParseRawResponse(raw)
	if err != nil {
		t.Fatalf("ParseRawResponse() error = %v", err)
	}

	fields := resp.Groups[0].Data[0]
	wantOrder := []string{"zip", "email", "city"}
	if len(fields) != len(wantOrder) {
		t.Fatalf("got %d fields, want %d", len(fields), len(wantOrder))
	}
	for i, want := range wantOrder {
		if fields[i].Name != want {
			t.Errorf("field %d = %q, want %q", i, fields[i].Name, want)
		}
	}
}

func TestParseRawResponse_ValueKinds(t *testing.T) {
	raw := []byte(`{
		"NumOfResults": 1,
		"List": {
			"Mixed": {"Data": [{
				"name": "jane",
				"age": 42,
				"balance": 3.50,
				"padded": 0.10,
				"active": true,
				"gone": null,
				"extra": {"nested": [1, 2]}
			}]}
		}
	}`)

	resp, err := ParseRawResponse(raw)
	if err != nil {
		t.Fatalf("ParseRawResponse() error = %v", err)
	}

	fields := resp.Groups[0].Data[0]
	tests := []struct {
		name string
		want string
	}{
		{"name", "jane"},
		{"age", "42"},
		{"balance", "3.50"},
		{"padded", "0.10"},
		{"active", "true"},
		{"gone", ""},
		{"extra", `{"nested":[1,2]}`},
	}
	for _, tt := range tests {
		v, ok := fields.Get(tt.name)
		if !ok {
			t.Errorf("field %q missing", tt.name)
			continue
		}
		if got := v.String(); got != tt.want {
			t.Errorf("field %q = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestParseRawResponse_EmptyAndNullList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing list", `{"NumOfResults": 0}`},
		{"null list", `{"NumOfResults": 0, "List": null}`},
		{"empty list", `{"NumOfResults": 0, "List": {}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseRawResponse([]byte(tt.raw))
			if err != nil {
				t.Fatalf("ParseRawResponse() error = %v", err)
			}
			if len(resp.Groups) != 0 {
				t.Errorf("got %d groups, want 0", len(resp.Groups))
			}
		})
	}
}

func TestParseRawResponse_IgnoresUnknownKeys(t *testing.T) {
	raw := []byte(`{
		"free_requests_left": 99,
		"NumOfResults": 1,
		"price": 0.01,
		"List": {"Email": {"Data": [{"email": "a@x.com"}], "InfoLeak": "s", "NumOfResults": 1}}
	}`)

	resp, err := ParseRawResponse(raw)
	if err != nil {
		t.Fatalf("ParseRawResponse() error = %v", err)
	}
	if len(resp.Groups) != 1 || len(resp.Groups[0].Data) != 1 {
		t.Fatalf("unexpected shape: %+v", resp)
	}
}

func TestParseRawResponse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ``},
		{"not json", `hello`},
		{"array", `[1,2,3]`},
		{"truncated", `{"NumOfResults": 1, "List": {"Email": {"Data": [{"e"`},
		{"list not object", `{"List": 5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRawResponse([]byte(tt.raw)); err == nil {
				t.Errorf("ParseRawResponse(%q) expected error, got nil", tt.raw)
			}
		})
	}
}

func TestFieldMap_JSONRoundTripKeepsOrder(t *testing.T) {
	original := []byte(`{"zip":"10110","email":"a@x.com","count":7,"ok":true,"gone":null}`)

	var m FieldMap
	if err := json.Unmarshal(original, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != string(original) {
		t.Errorf("round trip = %s, want %s", out, original)
	}
}
