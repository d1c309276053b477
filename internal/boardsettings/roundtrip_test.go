package boardsettings

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

// jsonValue draws an arbitrary JSON value, biased towards the shapes the
// settings fields accept.
func jsonValue() *rapid.Generator[any] {
	return rapid.OneOf(
		rapid.Just[any](nil),
		rapid.Map(rapid.Bool(), func(b bool) any { return b }),
		rapid.Map(rapid.Int(), func(i int) any { return i }),
		rapid.Map(rapid.SampledFrom([]string{"folder", "everywhere", "auto", "always", "never", "", "x"}), func(s string) any { return s }),
		rapid.Map(rapid.SliceOf(rapid.String()), func(s []string) any { return s }),
		rapid.Map(rapid.SliceOf(rapid.Int()), func(s []int) any { return s }),
	)
}

func settingsString() *rapid.Generator[string] {
	object := rapid.Custom(func(t *rapid.T) string {
		fields := make(map[string]any)
		for _, key := range Keys {
			if rapid.Bool().Draw(t, "has-"+key) {
				fields[key] = jsonValue().Draw(t, key)
			}
		}
		data, err := json.Marshal(fields)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return string(data)
	})
	return rapid.OneOf(object, rapid.String())
}

func TestParseSerializeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := settingsString().Draw(t, "raw")

		parsed := Parse(raw)
		reparsed := Parse(Serialize(parsed))

		if diff := cmp.Diff(parsed, reparsed); diff != "" {
			t.Fatalf("round trip mismatch for %q (-first +second):\n%s", raw, diff)
		}
		if err := parsed.Validate(); err != nil {
			t.Fatalf("Parse(%q) produced invalid settings: %v", raw, err)
		}
	})
}
