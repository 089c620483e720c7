package catnip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShimSuppressReturnsDefault(t *testing.T) {
	reg := NewRegistry()
	s := reg.Shim("overlay", EventPresent, WithDefault(0x55))

	var order []string
	_, err := reg.Bus().Listen(EventPresent, "s1", record(&order, "s1", 0))
	require.NoError(t, err)
	_, err = reg.Bus().Listen(EventPresent, "s2", record(&order, "s2", NoOriginal))
	require.NoError(t, err)

	called := false
	r := s.Run([]uintptr{1, 2}, nil, func(...uintptr) uintptr {
		called = true
		return 7
	})
	assert.Equal(t, uintptr(0x55), r)
	assert.False(t, called)
	assert.Equal(t, []string{"s1", "s2"}, order)
}

func TestShimCallsOriginal(t *testing.T) {
	reg := NewRegistry()
	s := reg.Shim("model_render", EventPreDrawModel, WithPost(EventPostDrawModel))
	assert.True(t, reg.Bus().Registered(EventPostDrawModel))

	type drawArgs struct{ Entity int }
	var pre, post *Invocation
	_, err := reg.Bus().Listen(EventPreDrawModel, "stream", func(inv *Invocation) Flags {
		pre = inv
		assert.Equal(t, EventPreDrawModel, inv.Event)
		assert.Equal(t, "model_render", inv.Hook)
		assert.Equal(t, drawArgs{Entity: 3}, inv.Data)
		return Skip
	})
	require.NoError(t, err)
	_, err = reg.Bus().Listen(EventPostDrawModel, "stream", func(inv *Invocation) Flags {
		post = inv
		assert.Equal(t, uintptr(30), inv.Result)
		return 0
	})
	require.NoError(t, err)

	var got []uintptr
	r := s.Run([]uintptr{10, 20}, drawArgs{Entity: 3}, func(args ...uintptr) uintptr {
		got = args
		return args[0] + args[1]
	})
	assert.Equal(t, uintptr(30), r)
	assert.Equal(t, []uintptr{10, 20}, got)
	require.NotNil(t, pre)
	assert.Same(t, pre, post)
	assert.Equal(t, Skip, pre.Flags)
	assert.Same(t, pre, s.Current())
}

func TestShimHandlerResult(t *testing.T) {
	reg := NewRegistry()
	s := reg.Shim("window", EventWindowProc)
	_, err := reg.Bus().Listen(EventWindowProc, "menu", func(inv *Invocation) Flags {
		inv.Result = 1
		return NoOriginal | Skip
	})
	require.NoError(t, err)

	r := s.Run([]uintptr{0, 0x100}, nil, func(...uintptr) uintptr { return 0 })
	assert.Equal(t, uintptr(1), r)
}

func TestShimAround(t *testing.T) {
	reg := NewRegistry()
	var order []string
	s := reg.Shim("overlay", EventPresent, WithAround(func(inv *Invocation, dispatch func()) {
		order = append(order, "disable")
		dispatch()
		order = append(order, "restore")
	}))
	_, err := reg.Bus().Listen(EventPresent, "menu", record(&order, "handler", 0))
	require.NoError(t, err)

	s.Run(nil, nil, func(...uintptr) uintptr {
		order = append(order, "original")
		return 0
	})
	assert.Equal(t, []string{"disable", "handler", "restore", "original"}, order)
}

func TestShimNested(t *testing.T) {
	reg := NewRegistry()
	s := reg.Shim("client", EventFrameStageNotify)

	var seen []uintptr
	depth := 0
	_, err := reg.Bus().Listen(EventFrameStageNotify, "stream", func(inv *Invocation) Flags {
		assert.Equal(t, int64(depth+1), reg.Gate().InFlight())
		if depth == 0 {
			depth++
			s.Run([]uintptr{2}, nil, func(...uintptr) uintptr { return 0 })
			depth--
		}
		// the outer context is intact after the nested call returned
		seen = append(seen, inv.Args[0])
		return 0
	})
	require.NoError(t, err)

	s.Run([]uintptr{1}, nil, func(...uintptr) uintptr { return 0 })
	assert.Equal(t, []uintptr{2, 1}, seen)
	assert.Zero(t, reg.Gate().InFlight())
	assert.Equal(t, []uintptr{2}, s.Current().Args)
}

func TestShimAfterShutdown(t *testing.T) {
	reg := NewRegistry()
	s := reg.Shim("overlay", EventPresent, WithDefault(9))
	_, err := reg.Bus().Listen(EventPresent, "menu", func(*Invocation) Flags { return NoOriginal })
	require.NoError(t, err)

	reg.Bus().Shutdown()
	r := s.Run(nil, nil, func(...uintptr) uintptr { return 4 })
	assert.Equal(t, uintptr(4), r)
}
