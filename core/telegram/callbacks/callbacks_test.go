package callbacks

import "testing"

func TestSplit(t *testing.T) {
	cases := []struct {
		data, key, payload string
	}{
		{"controls:next:3:brand=5", "controls", "next:3:brand=5"},
		{"bookmark:delete", "bookmark", "delete"},
		{"noop", "noop", ""},
		{"\fbtn|42", "btn", "42"},
	}
	for _, tc := range cases {
		key, payload := Split(tc.data)
		if key != tc.key || payload != tc.payload {
			t.Fatalf("Split(%q) = %q, %q", tc.data, key, payload)
		}
	}
}
