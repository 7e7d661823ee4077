package task

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_SupersedesSameKey(t *testing.T) {
	var g Group

	first, finishFirst := g.Start(context.Background(), "fetch")
	defer finishFirst()
	second, finishSecond := g.Start(context.Background(), "fetch")
	defer finishSecond()

	require.Error(t, first.Err())
	assert.True(t, Superseded(first))
	assert.ErrorIs(t, context.Cause(first), ErrSuperseded)

	assert.NoError(t, second.Err())
	assert.False(t, Superseded(second))
}

func TestStart_DistinctKeysIndependent(t *testing.T) {
	var g Group

	a, finishA := g.Start(context.Background(), "update:1")
	defer finishA()
	b, finishB := g.Start(context.Background(), "update:2")
	defer finishB()

	assert.NoError(t, a.Err())
	assert.NoError(t, b.Err())
}

func TestFinish_ReleasesKey(t *testing.T) {
	var g Group

	ctx, finish := g.Start(context.Background(), "add")
	require.True(t, g.Running("add"))

	finish()
	assert.False(t, g.Running("add"))
	assert.Error(t, ctx.Err())
	assert.False(t, Superseded(ctx), "normal completion is not a supersede")

	// idempotent
	finish()
}

func TestFinish_OldTaskDoesNotReleaseNewer(t *testing.T) {
	var g Group

	_, finishOld := g.Start(context.Background(), "fetch")
	newCtx, finishNew := g.Start(context.Background(), "fetch")
	defer finishNew()

	finishOld()
	assert.True(t, g.Running("fetch"))
	assert.NoError(t, newCtx.Err())
}

func TestCancelAll(t *testing.T) {
	var g Group

	a, finishA := g.Start(context.Background(), "fetch")
	defer finishA()
	b, finishB := g.Start(context.Background(), "remove:7")
	defer finishB()

	g.CancelAll()

	assert.True(t, Superseded(a))
	assert.True(t, Superseded(b))
	assert.False(t, g.Running("fetch"))
}

func TestParentCancelIsNotSupersede(t *testing.T) {
	var g Group

	parent, cancel := context.WithCancel(context.Background())
	ctx, finish := g.Start(parent, "login")
	defer finish()

	cancel()
	<-ctx.Done()
	assert.False(t, Superseded(ctx))
}

func TestStart_Concurrent(t *testing.T) {
	var g Group
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, finish := g.Start(context.Background(), "fetch")
			finish()
		}()
	}
	wg.Wait()

	assert.False(t, g.Running("fetch"))
}
