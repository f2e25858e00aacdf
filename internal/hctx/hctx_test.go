package hctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHctx_FromMissing(t *testing.T) {
	st, ok := From(context.Background())
	require.False(t, ok)
	require.Nil(t, st)
}

func TestHctx_WithStateRoundtrip(t *testing.T) {
	st := New()
	ctx := WithState(context.Background(), st)
	got, ok := From(ctx)
	require.True(t, ok)
	got.Result = []byte(`{"ok":true}`)
	require.Equal(t, []byte(`{"ok":true}`), st.Result)
}

func TestHctx_NilState(t *testing.T) {
	ctx := WithState(context.Background(), nil)
	_, ok := From(ctx)
	require.False(t, ok)
}
