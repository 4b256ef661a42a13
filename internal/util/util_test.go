package util

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestReadLines(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in.m3u8", []byte("#EXTM3U\r\n\r\n  http://a/0.ts  \n#EXTINF:10,\nhttp://a/1.ts\n\n"), 0644))

	lines, err := ReadLines(fs, "/in.m3u8")
	require.NoError(t, err)
	require.Equal(t, []string{"#EXTM3U", "http://a/0.ts", "#EXTINF:10,", "http://a/1.ts"}, lines)

	require.Equal(t, []string{"http://a/0.ts", "http://a/1.ts"}, FilterLinks(lines))
}

func TestReadLinesMissingFile(t *testing.T) {
	_, err := ReadLines(afero.NewMemMapFs(), "/nope")
	require.Error(t, err)
}

func TestGetIDFromString(t *testing.T) {
	s := "http://example.com/1.html"
	id := GetIDFromString(&s)
	require.Len(t, id, 40)
	require.Equal(t, id, GetIDFromString(&s))
}
