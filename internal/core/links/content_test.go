package links

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "  just   text\n", want: "just text"},
		{name: "paragraphs", in: "<p>First</p><p>Second <b>bold</b></p>", want: "First Second bold"},
		{name: "entities", in: "<p>Fish &amp; chips</p>", want: "Fish & chips"},
		{name: "scripts skipped", in: "<p>Hi</p><script>var x = 1;</script><style>p{}</style><p>there</p>", want: "Hi there"},
		{name: "line breaks", in: "one<br/>two", want: "one two"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", Truncate("short", 10))
	require.Equal(t, "short", Truncate("short", 0))

	got := Truncate("the quick brown fox jumps over the lazy dog", 20)
	require.Equal(t, "the quick brown fox…", got)

	long := strings.Repeat("ж", 50)
	got = Truncate(long, 10)
	require.Equal(t, 11, utf8.RuneCountInString(got))
}

func TestExcerptAndWordCount(t *testing.T) {
	content := "<article><h1>Title</h1><p>One two three four five six.</p></article>"

	require.Equal(t, "Title One…", Excerpt(content, 12))
	require.Equal(t, 7, WordCount(content))
}
