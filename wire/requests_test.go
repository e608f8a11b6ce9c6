package wire

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestParseAPIError_ReadsEnvelope(t *testing.T) {
	body := []byte(`{"error":{"code":409,"message":"entity already exists","status":"ALREADY_EXISTS"}}`)
	apiErr := ParseAPIError(http.StatusConflict, body)
	if apiErr.Code != 409 || apiErr.Status != StatusAlreadyExists {
		t.Fatalf("unexpected api error %#v", apiErr)
	}
	if apiErr.Message != "entity already exists" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestParseAPIError_FallsBackToStatus(t *testing.T) {
	apiErr := ParseAPIError(http.StatusBadGateway, []byte(" upstream down "))
	if apiErr.Code != http.StatusBadGateway {
		t.Fatalf("expected status code fallback, got %d", apiErr.Code)
	}
	if apiErr.Status != "BAD_GATEWAY" {
		t.Fatalf("expected status text fallback, got %q", apiErr.Status)
	}
	if apiErr.Message != "upstream down" {
		t.Fatalf("expected trimmed body message, got %q", apiErr.Message)
	}
}

func TestMutation_Operation(t *testing.T) {
	entity := &Entity{}
	tests := []struct {
		name     string
		mutation Mutation
		want     string
	}{
		{name: "insert", mutation: Mutation{Insert: entity}, want: "insert"},
		{name: "delete", mutation: Mutation{Delete: &Key{}}, want: "delete"},
		{name: "empty", mutation: Mutation{}, want: ""},
		{name: "ambiguous", mutation: Mutation{Insert: entity, Upsert: entity}, want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.mutation.Operation(); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestValue_PopulatedFields(t *testing.T) {
	var value Value
	if err := json.Unmarshal([]byte(`{"stringValue":"a","integerValue":"1","meaning":22}`), &value); err != nil {
		t.Fatalf("unmarshal value: %v", err)
	}
	fields := value.PopulatedFields()
	want := []string{"integerValue", "stringValue", "meaning"}
	if len(fields) != len(want) {
		t.Fatalf("expected %v, got %v", want, fields)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, fields)
		}
	}

	var empty Value
	if err := json.Unmarshal([]byte(`{"nullValue":null}`), &empty); err != nil {
		t.Fatalf("unmarshal null value: %v", err)
	}
	if len(empty.PopulatedFields()) != 0 {
		t.Fatalf("expected json null to leave no populated field")
	}
}

func TestProjectPath(t *testing.T) {
	cases := []struct {
		project string
		want    string
	}{
		{"demo", "/v1/projects/demo:commit"},
		{"my project/x", "/v1/projects/my%20project%2Fx:commit"},
		{"example.com:demo", "/v1/projects/example.com:demo:commit"},
	}
	for _, tc := range cases {
		if got := ProjectPath(tc.project, MethodCommit); got != tc.want {
			t.Fatalf("ProjectPath(%q) = %q, want %q", tc.project, got, tc.want)
		}
	}
}

func TestSplitProjectTarget(t *testing.T) {
	cases := []struct {
		target      string
		wantProject string
		wantMethod  string
		wantOK      bool
	}{
		{"demo:lookup", "demo", "lookup", true},
		{"example.com:demo:commit", "example.com:demo", "commit", true},
		{"my%20project%2Fx:commit", "my project/x", "commit", true},
		{"demo", "", "", false},
		{"bad%zz:commit", "", "", false},
	}
	for _, tc := range cases {
		project, method, ok := SplitProjectTarget(tc.target)
		if project != tc.wantProject || method != tc.wantMethod || ok != tc.wantOK {
			t.Fatalf("SplitProjectTarget(%q) = (%q, %q, %v)", tc.target, project, method, ok)
		}
	}
}
