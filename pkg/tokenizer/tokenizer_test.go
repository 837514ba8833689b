package tokenizer

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want map[string]int
	}{
		{
			name: "mixed punctuation and short tokens dropped",
			in:   "Hi, the cat!! a bb ccc dddd",
			want: map[string]int{"the": 1, "cat": 1, "ccc": 1, "dddd": 1},
		},
		{
			name: "repeated terms counted",
			in:   "foo foo bar",
			want: map[string]int{"foo": 2, "bar": 1},
		},
		{
			name: "case sensitive",
			in:   "Foo foo FOO",
			want: map[string]int{"Foo": 1, "foo": 1, "FOO": 1},
		},
		{
			name: "empty input",
			in:   "",
			want: map[string]int{},
		},
		{
			name: "trailing partial token at end of buffer",
			in:   "alpha beta gamma",
			want: map[string]int{"alpha": 1, "beta": 1, "gamma": 1},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Tokenize([]byte(tc.in))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestTokenizeDeterministic(t *testing.T) {
	in := []byte("the quick brown fox jumps over the lazy dog")
	a := Tokenize(in)
	b := Tokenize(in)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("Tokenize is not deterministic: %v != %v", a, b)
	}
}

func TestTokenizeNoShortKeys(t *testing.T) {
	got := Tokenize([]byte("a bb ccc I am ok yes no"))
	for k := range got {
		if len(k) <= minTokenLength {
			t.Fatalf("unexpected short token %q in output", k)
		}
	}
}
