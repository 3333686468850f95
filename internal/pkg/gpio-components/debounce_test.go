package gpio

import (
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer(t *testing.T) {
	tests := []struct {
		name        string
		edge        Edge
		transitions []Edge
		gaps        []time.Duration
		wantEdges   []Edge
	}{
		{
			name:        "first transition is always accepted",
			edge:        FallingEdge,
			transitions: []Edge{FallingEdge},
			gaps:        []time.Duration{0},
			wantEdges:   []Edge{FallingEdge},
		},
		{
			name:        "transitions inside the window are dropped",
			edge:        FallingEdge,
			transitions: []Edge{FallingEdge, FallingEdge, FallingEdge},
			gaps:        []time.Duration{0, 10 * time.Millisecond, 100 * time.Millisecond},
			wantEdges:   []Edge{FallingEdge},
		},
		{
			name:        "window is measured from the last accepted event",
			edge:        FallingEdge,
			transitions: []Edge{FallingEdge, FallingEdge, FallingEdge},
			gaps:        []time.Duration{0, 300 * time.Millisecond, 300 * time.Millisecond},
			wantEdges:   []Edge{FallingEdge, FallingEdge},
		},
		{
			name:        "unselected edges are ignored",
			edge:        FallingEdge,
			transitions: []Edge{RisingEdge, FallingEdge},
			gaps:        []time.Duration{0, 0},
			wantEdges:   []Edge{FallingEdge},
		},
		{
			name:        "both edges passes rising and falling",
			edge:        BothEdges,
			transitions: []Edge{FallingEdge, RisingEdge},
			gaps:        []time.Duration{0, time.Second},
			wantEdges:   []Edge{FallingEdge, RisingEdge},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			clk := fakeclock.NewFakeClock(time.Unix(1000, 0))
			var got []Event
			d := newDebouncer(4, InputConfig{
				Edge:     test.edge,
				Debounce: 500 * time.Millisecond,
				Handler:  func(evt Event) { got = append(got, evt) },
			}, clk)

			for i, transition := range test.transitions {
				clk.Increment(test.gaps[i])
				d.see(transition)
			}

			require.Len(t, got, len(test.wantEdges))
			for i, evt := range got {
				assert.Equal(t, test.wantEdges[i], evt.Edge)
				assert.Equal(t, 4, evt.Pin)
				assert.Equal(t, uint32(i+1), evt.Seqno)
			}
		})
	}
}

func TestDebouncerZeroWindowAcceptsEverything(t *testing.T) {
	clk := fakeclock.NewFakeClock(time.Unix(1000, 0))
	count := 0
	d := newDebouncer(4, InputConfig{
		Edge:    FallingEdge,
		Handler: func(Event) { count++ },
	}, clk)
	for i := 0; i < 5; i++ {
		d.see(FallingEdge)
	}
	assert.Equal(t, 5, count)
}

func TestEdgeMatches(t *testing.T) {
	assert.True(t, RisingEdge.Matches(RisingEdge))
	assert.False(t, RisingEdge.Matches(FallingEdge))
	assert.True(t, FallingEdge.Matches(FallingEdge))
	assert.True(t, BothEdges.Matches(RisingEdge))
	assert.True(t, BothEdges.Matches(FallingEdge))
	assert.False(t, NoEdge.Matches(FallingEdge))
	assert.False(t, Edge(42).Valid())
	assert.Equal(t, "Edge(42)", Edge(42).String())
}

func TestDetectedTransition(t *testing.T) {
	tests := []struct {
		configured Edge
		level      Level
		want       Edge
	}{
		// a bounce can leave the line high right after a falling edge
		{configured: FallingEdge, level: High, want: FallingEdge},
		{configured: FallingEdge, level: Low, want: FallingEdge},
		{configured: RisingEdge, level: Low, want: RisingEdge},
		{configured: RisingEdge, level: High, want: RisingEdge},
		{configured: BothEdges, level: Low, want: FallingEdge},
		{configured: BothEdges, level: High, want: RisingEdge},
	}
	for _, tt := range tests {
		t.Run(tt.configured.String()+"/"+tt.level.String(), func(t *testing.T) {
			got := detectedTransition(tt.configured, tt.level)
			assert.Equal(t, tt.want, got)
			assert.True(t, tt.configured.Matches(got))
		})
	}
}
