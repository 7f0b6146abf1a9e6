package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	in := "invoice 12 87 301\n\n  payment   4 87 \nlonely\n"
	recs, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, Record{Keyword: "invoice", Docs: []int{12, 87, 301}}, recs[0])
	assert.Equal(t, Record{Keyword: "payment", Docs: []int{4, 87}}, recs[1])
	assert.Equal(t, "lonely", recs[2].Keyword)
	assert.Empty(t, recs[2].Docs)

	_, err = Parse(strings.NewReader("invoice 1 two\n"))
	assert.ErrorContains(t, err, "line 1")
}

func TestGenerateDeterministic(t *testing.T) {
	opts := DefaultGenOptions()
	opts.Writers = 3

	a, err := Generate(opts)
	require.NoError(t, err)
	b, err := Generate(opts)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	require.Len(t, a, 3)
	for i, db := range a {
		assert.Equal(t, i+1, db.ID)
		assert.Equal(t, i, db.Index())
		assert.Len(t, db.Records, len(Vocabulary))

		seen := map[string]bool{}
		for _, r := range db.Records {
			assert.False(t, seen[r.Keyword], "duplicate keyword %q", r.Keyword)
			seen[r.Keyword] = true
			assert.GreaterOrEqual(t, len(r.Docs), opts.MinDocs)
			assert.LessOrEqual(t, len(r.Docs), opts.MaxDocs)
			assert.IsIncreasing(t, r.Docs)
			assert.GreaterOrEqual(t, r.Docs[0], 1)
			assert.Less(t, r.Docs[len(r.Docs)-1], opts.MaxDocID)
		}
	}

	opts.Seed = 2
	c, err := Generate(opts)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestGenerateValidates(t *testing.T) {
	for name, mutate := range map[string]func(*GenOptions){
		"writers":  func(o *GenOptions) { o.Writers = 0 },
		"keywords": func(o *GenOptions) { o.KeywordsPerWriter = -1 },
		"docs":     func(o *GenOptions) { o.MinDocs, o.MaxDocs = 5, 4 },
		"doc ids":  func(o *GenOptions) { o.MaxDocID = 10 },
	} {
		t.Run(name, func(t *testing.T) {
			opts := DefaultGenOptions()
			mutate(&opts)
			_, err := Generate(opts)
			assert.Error(t, err)
		})
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	opts := DefaultGenOptions()
	opts.Writers = 4
	opts.KeywordsPerWriter = 10
	dbs, err := Generate(opts)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "db")
	require.NoError(t, Write(dir, dbs))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored 1\n"), 0o644))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dbs, loaded)
	assert.Positive(t, loaded[0].Pairs())
}

func TestLoadRejectsGaps(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.txt"), []byte("a 1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "3.txt"), []byte("b 2\n"), 0o644))
	_, err := Load(dir)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
