package gpio

import (
	"errors"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSim() (*Sim, *fakeclock.FakeClock) {
	clk := fakeclock.NewFakeClock(time.Unix(1000, 0))
	return NewSim(clk), clk
}

func TestSimPullSetsIdleLevel(t *testing.T) {
	sim, _ := newTestSim()

	up, err := sim.RequestInput(17, InputConfig{Pull: PullUp, Edge: FallingEdge})
	require.NoError(t, err)
	level, err := up.Level()
	require.NoError(t, err)
	assert.Equal(t, High, level)

	down, err := sim.RequestInput(27, InputConfig{Pull: PullDown, Edge: RisingEdge})
	require.NoError(t, err)
	level, err = down.Level()
	require.NoError(t, err)
	assert.Equal(t, Low, level)
}

func TestSimPressDeliversEdge(t *testing.T) {
	sim, _ := newTestSim()
	var got []Event
	_, err := sim.RequestInput(17, InputConfig{
		Pull:    PullUp,
		Edge:    FallingEdge,
		Handler: func(evt Event) { got = append(got, evt) },
	})
	require.NoError(t, err)

	sim.Press(17)
	sim.Release(17)

	require.Len(t, got, 1)
	assert.Equal(t, Event{Pin: 17, Edge: FallingEdge, Time: time.Unix(1000, 0), Seqno: 1}, got[0])
}

func TestSimPressWithPullDownDrivesHigh(t *testing.T) {
	sim, _ := newTestSim()
	count := 0
	line, err := sim.RequestInput(5, InputConfig{
		Pull:    PullDown,
		Edge:    RisingEdge,
		Handler: func(Event) { count++ },
	})
	require.NoError(t, err)

	sim.Press(5)
	level, err := line.Level()
	require.NoError(t, err)
	assert.Equal(t, High, level)
	assert.Equal(t, 1, count)
}

func TestSimSameLevelIsNotAnEdge(t *testing.T) {
	sim, _ := newTestSim()
	count := 0
	_, err := sim.RequestInput(17, InputConfig{Pull: PullUp, Edge: BothEdges, Handler: func(Event) { count++ }})
	require.NoError(t, err)

	sim.SetLevel(17, High)
	assert.Equal(t, 0, count)
}

func TestSimPinOwnership(t *testing.T) {
	sim, _ := newTestSim()
	line, err := sim.RequestInput(17, InputConfig{Pull: PullUp, Edge: FallingEdge})
	require.NoError(t, err)
	assert.True(t, sim.Requested(17))

	_, err = sim.RequestInput(17, InputConfig{Pull: PullUp, Edge: FallingEdge})
	assert.True(t, errors.Is(err, ErrPinBusy))

	require.NoError(t, line.Close())
	require.NoError(t, line.Close())
	assert.False(t, sim.Requested(17))

	_, err = line.Level()
	assert.True(t, errors.Is(err, ErrClosed))

	_, err = sim.RequestInput(17, InputConfig{Pull: PullUp, Edge: FallingEdge})
	assert.NoError(t, err)
}

func TestSimInvalidPin(t *testing.T) {
	sim, _ := newTestSim()
	_, err := sim.RequestInput(-1, InputConfig{Pull: PullUp, Edge: FallingEdge})
	assert.Error(t, err)
	assert.False(t, sim.Requested(-1))
}

func TestSimCloseReleasesLines(t *testing.T) {
	sim, _ := newTestSim()
	_, err := sim.RequestInput(17, InputConfig{Pull: PullUp, Edge: FallingEdge})
	require.NoError(t, err)
	_, err = sim.RequestInput(27, InputConfig{Pull: PullUp, Edge: FallingEdge})
	require.NoError(t, err)

	require.NoError(t, sim.Close())
	assert.False(t, sim.Requested(17))
	assert.False(t, sim.Requested(27))
}

func TestSimOnReadHook(t *testing.T) {
	sim, _ := newTestSim()
	line, err := sim.RequestInput(17, InputConfig{Pull: PullUp, Edge: FallingEdge})
	require.NoError(t, err)

	reads := 0
	sim.OnRead(func(pin int) {
		reads++
		sim.SetLevel(pin, Low)
	})
	level, err := line.Level()
	require.NoError(t, err)
	assert.Equal(t, Low, level)
	assert.Equal(t, 1, reads)
}

func TestSimDriveChangesLevelBeforeDelivery(t *testing.T) {
	sim, _ := newTestSim()
	var got []Edge
	line, err := sim.RequestInput(17, InputConfig{
		Pull:    PullUp,
		Edge:    BothEdges,
		Handler: func(evt Event) { got = append(got, evt.Edge) },
	})
	require.NoError(t, err)
	assert.Equal(t, Low, sim.PressedLevel(17))
	assert.Equal(t, High, sim.IdleLevel(17))

	deliverPress := sim.Drive(17, sim.PressedLevel(17))
	level, err := line.Level()
	require.NoError(t, err)
	assert.Equal(t, Low, level)
	assert.Empty(t, got)

	deliverRelease := sim.Drive(17, sim.IdleLevel(17))
	level, err = line.Level()
	require.NoError(t, err)
	assert.Equal(t, High, level)

	deliverPress()
	deliverRelease()
	assert.Equal(t, []Edge{FallingEdge, RisingEdge}, got)

	// no change, nothing to deliver
	sim.Drive(17, High)()
	assert.Len(t, got, 2)
}
