package schedule

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadMessagesTxt(t *testing.T) {
	path := writeTemp(t, "tweets.txt", "first tweet\n\n  second tweet  \n\nthird\n")

	msgs, err := ReadMessages(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"first tweet", "second tweet", "third"}, msgs)
}

func TestReadMessagesCSV(t *testing.T) {
	path := writeTemp(t, "tweets.csv", "hello world,extra\nsecond tweet\n\"quoted, with comma\",x,y\n")

	msgs, err := ReadMessages(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello world", "second tweet", "quoted, with comma"}, msgs)
}

func TestReadMessagesSkipsBlankCSVCells(t *testing.T) {
	path := writeTemp(t, "tweets.csv", "first\n,ignored\nsecond\n")

	msgs, err := ReadMessages(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, msgs)
}

func TestReadMessagesUnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "tweets.json", `["nope"]`)

	_, err := ReadMessages(path)
	assert.Error(t, err)
}

func TestReadMessagesMissingFile(t *testing.T) {
	_, err := ReadMessages(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}
