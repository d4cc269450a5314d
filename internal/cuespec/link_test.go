package cuespec

import (
	"testing"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseradb/tessera/internal/partition"
	"github.com/tesseradb/tessera/internal/schema"
	"github.com/tesseradb/tessera/internal/testutil"
)

// compileDefs compiles every template declared in src, in source order.
func compileDefs(t *testing.T, src string) []*TemplateDef {
	t.Helper()
	root := cuecontext.New().CompileString(src)
	require.NoError(t, root.Err())

	iter, err := root.LookupPath(cue.ParsePath("template")).Fields()
	require.NoError(t, err)

	var defs []*TemplateDef
	for iter.Next() {
		def, err := CompileTemplate(iter.Value())
		require.NoError(t, err)
		defs = append(defs, def)
	}
	return defs
}

const tweetStarSrc = `
template: Tweet: {
	fields: {
		json: {type: "text"}
		created: {type: "datetime", default: "now"}
	}
	partition: {by: "month"}
}
template: Star: {
	fields: {
		user: {type: "text"}
		tweet: {fk: "Tweet", related: "stars"}
	}
	partition: {by: "month"}
}
`

func TestLinkBuildsUniverse(t *testing.T) {
	u, err := Link(compileDefs(t, tweetStarSrc), partition.SystemClock{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Tweet", "Star"}, u.Names())

	tweet, ok := u.Template("Tweet")
	require.True(t, ok)
	star, ok := u.Template("Star")
	require.True(t, ok)

	// The star's relationship field must still be a placeholder into the
	// tweet template; nothing concrete exists before synthesis.
	fields := star.Fields()
	require.Len(t, fields, 2)
	pending, ok := fields[1].(schema.PendingFK)
	require.True(t, ok)
	assert.Same(t, tweet, pending.Target)
	assert.Equal(t, "stars", pending.Opts.RelatedName)

	// Both templates got a manager during linking.
	_, ok = u.Manager("Tweet")
	assert.True(t, ok)
	_, ok = u.Manager("Star")
	assert.True(t, ok)
}

func TestLinkForwardReference(t *testing.T) {
	// Star declares its fk before Tweet is declared; the two-pass link
	// must still resolve the target.
	u, err := Link(compileDefs(t, `
template: Star: {
	fields: tweet: {fk: "Tweet"}
}
template: Tweet: {
	fields: json: {type: "text"}
}
`), partition.SystemClock{})
	require.NoError(t, err)

	tweet, _ := u.Template("Tweet")
	star, _ := u.Template("Star")
	pending, ok := star.Fields()[0].(schema.PendingFK)
	require.True(t, ok)
	assert.Same(t, tweet, pending.Target)
}

func TestLinkUnknownTarget(t *testing.T) {
	_, err := Link(compileDefs(t, `
template: Star: {
	fields: tweet: {fk: "Tweet"}
}
`), partition.SystemClock{})

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Star.tweet", ce.Field)
	assert.Contains(t, ce.Message, "unknown template Tweet")
}

func TestLinkDuplicateTemplate(t *testing.T) {
	defs := compileDefs(t, `template: Tweet: {fields: json: {type: "text"}}`)
	defs = append(defs, defs[0])

	_, err := Link(defs, partition.SystemClock{})
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Message, "declared twice")
}

func TestLinkRejectsNonAbstractTemplate(t *testing.T) {
	_, err := Link(compileDefs(t, `
template: Audit: {
	abstract: false
	fields: note: {type: "text"}
}
`), partition.SystemClock{})

	require.Error(t, err)
	assert.True(t, schema.IsConfigError(err))
}

func TestLinkMonthKeyer(t *testing.T) {
	clock := testutil.NewFixedClock(time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC))
	u, err := Link(compileDefs(t, tweetStarSrc), clock)
	require.NoError(t, err)

	mgr, ok := u.Manager("Tweet")
	require.True(t, ok)

	cur, err := mgr.EnsureCurrentPartition()
	require.NoError(t, err)
	assert.Equal(t, "Tweet_2024_01", cur.Name())

	next, err := mgr.EnsureNextPartition()
	require.NoError(t, err)
	assert.Equal(t, "Tweet_2024_02", next.Name())
}

func TestLinkWithoutPartitionSchemeIsUnimplemented(t *testing.T) {
	u, err := Link(compileDefs(t, `
template: Tweet: {
	fields: json: {type: "text"}
}
`), partition.SystemClock{})
	require.NoError(t, err)

	mgr, ok := u.Manager("Tweet")
	require.True(t, ok)

	_, err = mgr.EnsureCurrentPartition()
	require.Error(t, err)
	assert.True(t, schema.IsNotImplemented(err))
}

func TestLinkedUniverseCascades(t *testing.T) {
	u, err := Link(compileDefs(t, tweetStarSrc), partition.SystemClock{})
	require.NoError(t, err)

	mgr, _ := u.Manager("Tweet")
	tweetPart, err := mgr.GetPartition("foo", true)
	require.NoError(t, err)
	assert.Equal(t, "Tweet_foo", tweetPart.Name())

	obj, ok := u.Catalog.Lookup("Star_foo")
	require.True(t, ok)
	starPart, ok := obj.(*schema.Partition)
	require.True(t, ok)

	resolved, ok := starPart.Fields()[1].(schema.ResolvedFK)
	require.True(t, ok)
	assert.Same(t, tweetPart, resolved.Target)
	assert.Empty(t, starPart.Pending())
}
