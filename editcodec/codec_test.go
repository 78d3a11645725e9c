package editcodec

import (
	"reflect"
	"strings"
	"testing"

	"github.com/crmarques/boardprompt/faults"
	"github.com/crmarques/boardprompt/resource"
)

var cardKeys = []string{"summary", "status", "labels", "timeleft"}

func card(id string, fields resource.Fields) resource.Resource {
	return resource.Resource{ID: id, Type: resource.TypeCard, Fields: fields}
}

func TestSerializeThenParseRoundTrips(t *testing.T) {
	codec := New()
	resources := []resource.Resource{
		card("CARD-1", resource.Fields{
			"summary":  "fix the flux capacitor",
			"status":   "To Do",
			"labels":   []any{"hardware", "urgent"},
			"timeleft": int64(5400),
			"reporter": "someone", // not editable, must not be emitted
		}),
		card("CARD-2", resource.Fields{
			"summary": "second card",
			"status":  "Done",
		}),
	}

	text, err := codec.Serialize(resources, cardKeys)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if strings.Contains(text, "reporter") {
		t.Fatalf("non-editable field leaked into buffer:\n%s", text)
	}
	if !strings.Contains(text, "# "+string(resource.TypeCard)+" CARD-1") {
		t.Fatalf("expected instructional comment for CARD-1:\n%s", text)
	}

	parsed, err := codec.Parse(text, cardKeys)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("parsed %d blocks, want 2", len(parsed))
	}
	want, err := resource.NormalizeFields(resources[0].Fields.Restrict(cardKeys))
	if err != nil {
		t.Fatalf("NormalizeFields: %v", err)
	}
	if !reflect.DeepEqual(parsed["CARD-1"], want) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", parsed["CARD-1"], want)
	}
}

func TestSerializeKeepsSelectionOrder(t *testing.T) {
	codec := New()
	text, err := codec.Serialize([]resource.Resource{
		card("CARD-9", resource.Fields{"status": "To Do"}),
		card("CARD-1", resource.Fields{"status": "Done"}),
	}, cardKeys)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if strings.Index(text, "CARD-9") > strings.Index(text, "CARD-1") {
		t.Fatalf("selection order not preserved:\n%s", text)
	}
}

func TestSerializePreservesAmbiguousIDs(t *testing.T) {
	codec := New()
	for _, id := range []string{"007", "true", "1e3"} {
		text, err := codec.Serialize([]resource.Resource{
			card(id, resource.Fields{"status": "To Do"}),
		}, cardKeys)
		if err != nil {
			t.Fatalf("Serialize(%q): %v", id, err)
		}
		parsed, err := codec.Parse(text, cardKeys)
		if err != nil {
			t.Fatalf("Parse(%q): %v", id, err)
		}
		if _, ok := parsed[id]; !ok {
			t.Fatalf("id %q did not round-trip, got %#v", id, parsed)
		}
	}
}

func TestParseIgnoresCommentContent(t *testing.T) {
	codec := New()
	text := strings.Join([]string{
		"# status: Sabotaged",
		"   # - id: CARD-666",
		"- id: CARD-1",
		"  status: To Do",
		"# trailing note",
		"",
	}, "\n")

	parsed, err := codec.Parse(text, cardKeys)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(parsed) != 1 {
		t.Fatalf("comment lines leaked into parse: %#v", parsed)
	}
	if parsed["CARD-1"]["status"] != "To Do" {
		t.Fatalf("parsed = %#v", parsed["CARD-1"])
	}
}

func TestParseValidationFailures(t *testing.T) {
	codec := New()
	cases := []struct {
		name string
		text string
	}{
		{"missing id", "- status: To Do\n"},
		{"empty id", "- id: \"\"\n  status: To Do\n"},
		{"duplicate id", "- id: CARD-1\n- id: CARD-1\n"},
		{"non-editable key", "- id: CARD-1\n  reporter: me\n"},
		{"malformed yaml", "- id: CARD-1\n  status: [unclosed\n"},
		{"not a list", "id: CARD-1\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := codec.Parse(tc.text, cardKeys); !faults.IsCategory(err, faults.ValidationError) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestParseEmptyBufferMeansNoEdits(t *testing.T) {
	codec := New()
	parsed, err := codec.Parse("# everything deleted\n\n", cardKeys)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(parsed) != 0 {
		t.Fatalf("expected no parsed blocks, got %#v", parsed)
	}
}

func TestParseAcceptsNumericWorklogIDs(t *testing.T) {
	codec := New()
	parsed, err := codec.Parse("- id: 10001\n  comment: standup\n", []string{"comment"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := parsed["10001"]; !ok {
		t.Fatalf("numeric id not normalized to string: %#v", parsed)
	}
}

func TestStripCommentsDropsOnlySentinelLines(t *testing.T) {
	in := "keep: 'has # inside'\n# drop\n\t# drop too\nplain\n"
	got := StripComments(in)
	if strings.Contains(got, "drop") {
		t.Fatalf("sentinel lines survived: %q", got)
	}
	if !strings.Contains(got, "has # inside") {
		t.Fatalf("inline sentinel must survive: %q", got)
	}
}
