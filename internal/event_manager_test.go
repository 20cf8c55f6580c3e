package internal_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightmvc/lightmvc/internal"
)

func recorder(calls *[]string, name string, ret any) func(*internal.Event) (any, error) {
	return func(*internal.Event) (any, error) {
		*calls = append(*calls, name)
		return ret, nil
	}
}

func TestEventManager_PriorityOrder(t *testing.T) {
	t.Parallel()

	em := internal.NewEventManager()
	var calls []string
	em.AttachFunc(internal.PhaseRoute, recorder(&calls, "low", nil), 5)
	em.AttachFunc(internal.PhaseRoute, recorder(&calls, "high", nil), 10)
	em.AttachFunc(internal.PhaseRoute, recorder(&calls, "low-second", nil), 5)
	em.AttachFunc(internal.PhaseRoute, recorder(&calls, "negative", nil), -1)

	res, err := em.Trigger(internal.NewEvent(internal.PhaseRoute, nil))
	require.NoError(t, err)
	require.Equal(t, []string{"high", "low", "low-second", "negative"}, calls)
	require.False(t, res.Stopped())
	require.Equal(t, 4, res.Len())
	require.Equal(t, 4, em.Listeners(internal.PhaseRoute))
}

func TestEventManager_TriggerUntil(t *testing.T) {
	t.Parallel()

	em := internal.NewEventManager()
	resp := internal.Text(http.StatusOK, "early")
	var calls []string
	em.AttachFunc(internal.PhaseDispatch, recorder(&calls, "first", "not a response"), 3)
	em.AttachFunc(internal.PhaseDispatch, recorder(&calls, "answer", resp), 2)
	em.AttachFunc(internal.PhaseDispatch, recorder(&calls, "never", internal.Text(http.StatusTeapot, "late")), 1)

	res, err := em.TriggerUntil(internal.IsResponse, internal.NewEvent(internal.PhaseDispatch, nil))
	require.NoError(t, err)
	require.True(t, res.Stopped())
	require.Same(t, resp, res.Last())
	require.Equal(t, "not a response", res.First())
	require.Equal(t, []string{"first", "answer"}, calls)
}

func TestEventManager_TriggerRunsAllWithoutPredicate(t *testing.T) {
	t.Parallel()

	em := internal.NewEventManager()
	var calls []string
	em.AttachFunc(internal.PhaseFinish, recorder(&calls, "a", internal.Text(http.StatusOK, "x")), 2)
	em.AttachFunc(internal.PhaseFinish, recorder(&calls, "b", "tail"), 1)

	res, err := em.Trigger(internal.NewEvent(internal.PhaseFinish, nil))
	require.NoError(t, err)
	require.False(t, res.Stopped())
	require.Equal(t, "tail", res.Last())
	require.Equal(t, []string{"a", "b"}, calls)
}

func TestEventManager_StopPropagation(t *testing.T) {
	t.Parallel()

	em := internal.NewEventManager()
	var calls []string
	em.AttachFunc(internal.PhaseRoute, func(e *internal.Event) (any, error) {
		calls = append(calls, "stopper")
		e.StopPropagation(true)
		return "stopped here", nil
	}, 2)
	em.AttachFunc(internal.PhaseRoute, recorder(&calls, "skipped", nil), 1)

	res, err := em.Trigger(internal.NewEvent(internal.PhaseRoute, nil))
	require.NoError(t, err)
	require.True(t, res.Stopped())
	require.Equal(t, "stopped here", res.Last())
	require.Equal(t, []string{"stopper"}, calls)
}

func TestEventManager_ErrorPropagates(t *testing.T) {
	t.Parallel()

	em := internal.NewEventManager()
	boom := errors.New("boom")
	var calls []string
	em.AttachFunc(internal.PhaseRender, func(*internal.Event) (any, error) { return nil, boom }, 2)
	em.AttachFunc(internal.PhaseRender, recorder(&calls, "after", nil), 1)

	_, err := em.Trigger(internal.NewEvent(internal.PhaseRender, nil))
	require.ErrorIs(t, err, boom)
	require.Empty(t, calls)
}

func TestEventManager_DuplicateAttachAndDetach(t *testing.T) {
	t.Parallel()

	em := internal.NewEventManager()
	var calls []string
	l := internal.ListenerFunc(recorder(&calls, "dup", nil))
	first := em.Attach(internal.PhaseBootstrap, l, 1)
	em.Attach(internal.PhaseBootstrap, l, 1)
	require.Equal(t, 2, em.Listeners(internal.PhaseBootstrap))

	_, err := em.Trigger(internal.NewEvent(internal.PhaseBootstrap, nil))
	require.NoError(t, err)
	require.Equal(t, []string{"dup", "dup"}, calls)

	first.Detach()
	first.Detach()
	require.Equal(t, 1, em.Listeners(internal.PhaseBootstrap))
	require.Equal(t, internal.PhaseBootstrap, first.Phase())

	em.ClearListeners(internal.PhaseBootstrap)
	require.Zero(t, em.Listeners(internal.PhaseBootstrap))
}

func TestEventManager_IgnoresInvalidAttach(t *testing.T) {
	t.Parallel()

	em := internal.NewEventManager()
	sub := em.Attach(internal.Phase(42), internal.ListenerFunc(recorder(new([]string), "x", nil)), 1)
	sub.Detach()
	em.Attach(internal.PhaseRoute, nil, 1)
	require.Zero(t, em.Listeners(internal.PhaseRoute))
}

type auditor struct{ seen []internal.Phase }

func (a *auditor) OnRoute(e *internal.Event) (any, error) {
	a.seen = append(a.seen, e.Name())
	return nil, nil
}

func (a *auditor) OnFinish(e *internal.Event) (any, error) {
	a.seen = append(a.seen, e.Name())
	return nil, nil
}

func TestEventManager_AttachListener(t *testing.T) {
	t.Parallel()

	em := internal.NewEventManager()
	a := &auditor{}
	subs, err := em.AttachListener(a, internal.DefaultPriority)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	require.Equal(t, 1, em.Listeners(internal.PhaseRoute))
	require.Equal(t, 1, em.Listeners(internal.PhaseFinish))
	require.Zero(t, em.Listeners(internal.PhaseDispatch))

	e := internal.NewEvent(internal.PhaseRoute, nil)
	_, err = em.Trigger(e)
	require.NoError(t, err)
	e.SetName(internal.PhaseFinish)
	_, err = em.Trigger(e)
	require.NoError(t, err)
	require.Equal(t, []internal.Phase{internal.PhaseRoute, internal.PhaseFinish}, a.seen)

	_, err = em.AttachListener(struct{}{}, 1)
	require.ErrorIs(t, err, internal.ErrNotAListener)
}

func TestPhase_Names(t *testing.T) {
	t.Parallel()

	for _, p := range internal.Phases() {
		got, ok := internal.ParsePhase(p.String())
		require.True(t, ok)
		require.Equal(t, p, got)
	}
	require.Equal(t, "finish", internal.PhaseFinish.String())
	require.Equal(t, "unknown", internal.Phase(-1).String())
	_, ok := internal.ParsePhase("teardown")
	require.False(t, ok)
}
