package catnip

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testModule struct {
	name   string
	event  EventID
	handle Handler
}

func (m *testModule) Name() string {
	return m.name
}

func (m *testModule) StartListening(l Listener) {
	l.Listen(m.event, m.handle)
}

// overlayHook wires a code patch over the Present site to a registry shim.
func overlayHook(reg *Registry, sig Signature) *CodePatch {
	var cp *CodePatch
	s := reg.Shim("overlay", EventPresent, WithDefault(0xD3D))
	cp = NewCodePatch("overlay", &Site{
		Sig:  sig,
		Rule: RelRIP(2),
		Argc: 1,
		Shim: func(args ...uintptr) uintptr {
			return s.Run(args, nil, func(a ...uintptr) uintptr {
				r, _ := cp.CallOriginal(0, a...)
				return r
			})
		},
	})
	return cp
}

func TestLifecycleStartShutdown(t *testing.T) {
	img, cells := newHost(t, func(args ...uintptr) uintptr { return args[0] })
	before := mustReadPtr(t, img, cells[0])

	reg := NewRegistry()
	require.NoError(t, reg.AddHook(overlayHook(reg, sigPresent)))
	suppress := false
	require.NoError(t, reg.AddModule(&testModule{name: "menu", event: EventPresent, handle: func(*Invocation) Flags {
		if suppress {
			return NoOriginal
		}
		return 0
	}}))

	lc := NewLifecycle(reg, img, WithQuiescence(time.Second))
	assert.Equal(t, Uninstalled, lc.State())
	require.NoError(t, lc.Start(context.Background()))
	assert.Equal(t, Installed, lc.State())
	assert.True(t, reg.Bus().Sealed())

	r, err := img.CallThrough(cells[0], 7)
	require.NoError(t, err)
	assert.Equal(t, uintptr(7), r)
	suppress = true
	r, err = img.CallThrough(cells[0], 7)
	require.NoError(t, err)
	assert.Equal(t, uintptr(0xD3D), r)

	assert.ErrorIs(t, reg.AddHook(NewCodePatch("late")), ErrFrozen)
	assert.ErrorIs(t, lc.InstallAll(context.Background()), ErrAlreadyInstalled)

	require.NoError(t, lc.ShutdownAll(context.Background()))
	assert.Equal(t, Unloaded, lc.State())
	assert.Equal(t, before, mustReadPtr(t, img, cells[0]))

	require.NoError(t, lc.ShutdownAll(context.Background()))
	assert.Equal(t, Unloaded, lc.State())
}

func TestLifecycleRollback(t *testing.T) {
	img, cells := newHost(t, func(...uintptr) uintptr { return 0 })
	before := mustReadPtr(t, img, cells[0])

	reg := NewRegistry()
	require.NoError(t, reg.AddHook(overlayHook(reg, sigPresent)))
	require.NoError(t, reg.AddHook(NewCodePatch("reset", &Site{
		Sig:  sigMissing,
		Rule: RelRIP(2),
		Shim: func(...uintptr) uintptr { return 0 },
	})))

	lc := NewLifecycle(reg, img)
	err := lc.Start(context.Background())
	var ie *InstallError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "reset", ie.Hook)
	assert.ErrorIs(t, err, ErrPatternNotFound)

	assert.Equal(t, Uninstalled, lc.State())
	assert.Equal(t, before, mustReadPtr(t, img, cells[0]))
	h, err := reg.Hook("overlay")
	require.NoError(t, err)
	assert.False(t, h.Installed())

	require.NoError(t, lc.ShutdownAll(context.Background()))
}

func TestLifecycleListenFailure(t *testing.T) {
	img, cells := newHost(t, func(...uintptr) uintptr { return 0 })
	before := mustReadPtr(t, img, cells[0])

	reg := NewRegistry()
	require.NoError(t, reg.AddHook(overlayHook(reg, sigPresent)))
	require.NoError(t, reg.AddModule(&testModule{name: "stream", event: EventViewDrawFade, handle: func(*Invocation) Flags { return 0 }}))

	lc := NewLifecycle(reg, img)
	err := lc.Start(context.Background())
	assert.ErrorIs(t, err, ErrUnknownEvent)
	assert.Contains(t, err.Error(), "stream")
	assert.Equal(t, Uninstalled, lc.State())
	assert.Equal(t, before, mustReadPtr(t, img, cells[0]))
}

func TestLifecycleRetryAfterListenFailure(t *testing.T) {
	img, cells := newHost(t, func(args ...uintptr) uintptr { return args[0] })

	reg := NewRegistry()
	require.NoError(t, reg.AddHook(overlayHook(reg, sigPresent)))
	calls := 0
	require.NoError(t, reg.AddModule(&testModule{name: "menu", event: EventPresent, handle: func(*Invocation) Flags {
		calls++
		return 0
	}}))
	require.NoError(t, reg.AddModule(&testModule{name: "stream", event: EventViewDrawFade, handle: func(*Invocation) Flags { return 0 }}))

	lc := NewLifecycle(reg, img)
	require.ErrorIs(t, lc.Start(context.Background()), ErrUnknownEvent)
	assert.Empty(t, reg.Bus().Subscribers(EventPresent))
	assert.False(t, reg.Bus().Sealed())

	require.NoError(t, reg.Bus().RegisterEvent(EventViewDrawFade))
	require.NoError(t, lc.Start(context.Background()))
	assert.Len(t, reg.Bus().Subscribers(EventPresent), 1)

	_, err := img.CallThrough(cells[0], 7)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	require.NoError(t, lc.ShutdownAll(context.Background()))
}

func TestLifecycleDrain(t *testing.T) {
	g := NewWithT(t)

	reg := NewRegistry()
	s := reg.Shim("client", EventFrameStageNotify)
	release := make(chan struct{})
	require.NoError(t, reg.AddModule(&testModule{name: "stream", event: EventFrameStageNotify, handle: func(*Invocation) Flags {
		<-release
		return 0
	}}))

	lc := NewLifecycle(reg, NewImage(8), WithQuiescence(20*time.Millisecond))
	require.NoError(t, lc.Start(context.Background()))

	done := make(chan struct{})
	go func() {
		s.Run([]uintptr{5}, nil, func(...uintptr) uintptr { return 0 })
		close(done)
	}()
	g.Eventually(reg.Gate().InFlight).Should(Equal(int64(1)))

	err := lc.ShutdownAll(context.Background())
	g.Expect(errors.Is(err, ErrDrainTimeout)).To(BeTrue())
	g.Expect(lc.State()).To(Equal(Draining))

	close(release)
	g.Eventually(done).Should(BeClosed())
	g.Expect(lc.ShutdownAll(context.Background())).To(Succeed())
	g.Expect(lc.State()).To(Equal(Unloaded))
}

func TestLifecycleDrainWaits(t *testing.T) {
	g := NewWithT(t)

	reg := NewRegistry()
	s := reg.Shim("client", EventFrameStageNotify)
	release := make(chan struct{})
	require.NoError(t, reg.AddModule(&testModule{name: "stream", event: EventFrameStageNotify, handle: func(*Invocation) Flags {
		<-release
		return 0
	}}))

	lc := NewLifecycle(reg, NewImage(8), WithQuiescence(10*time.Second))
	require.NoError(t, lc.Start(context.Background()))

	go s.Run(nil, nil, func(...uintptr) uintptr { return 0 })
	g.Eventually(reg.Gate().InFlight).Should(Equal(int64(1)))

	result := make(chan error, 1)
	go func() { result <- lc.ShutdownAll(context.Background()) }()
	g.Eventually(lc.State).Should(Equal(Draining))
	g.Consistently(result, 50*time.Millisecond).ShouldNot(Receive())

	close(release)
	g.Eventually(result).Should(Receive(BeNil()))
	g.Expect(lc.State()).To(Equal(Unloaded))
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	a := NewCodePatch("a")
	require.NoError(t, reg.AddHook(a))
	assert.ErrorIs(t, reg.AddHook(NewCodePatch("a")), ErrDoubleHook)
	require.NoError(t, reg.AddHook(NewVTable("b", nil)))

	h, err := reg.Hook("a")
	require.NoError(t, err)
	assert.Same(t, a, h)
	_, err = reg.Hook("c")
	assert.ErrorIs(t, err, ErrHookNotFound)

	hooks := reg.Hooks()
	require.Len(t, hooks, 2)
	assert.Equal(t, "b", hooks[1].Name())

	require.NoError(t, reg.AddModule(&testModule{name: "m"}))
	assert.Len(t, reg.Modules(), 1)

	assert.Equal(t, "draining", Draining.String())
	assert.Equal(t, "unknown", State(9).String())
}
