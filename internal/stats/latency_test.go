package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		samples []time.Duration
		want    Tail
	}{
		{name: "empty", want: Tail{}},
		{name: "single", samples: []time.Duration{ms(7)}, want: Tail{P50: ms(7), P95: ms(7), P99: ms(7), Max: ms(7)}},
		{
			name:    "small_set_tail_is_max",
			samples: []time.Duration{ms(30), ms(10), ms(20), ms(40)},
			want:    Tail{P50: ms(20), P95: ms(40), P99: ms(40), Max: ms(40)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.samples))
		})
	}
}

func TestSummarize_DoesNotMutate(t *testing.T) {
	samples := []time.Duration{ms(3), ms(1), ms(2)}
	Summarize(samples)
	assert.Equal(t, []time.Duration{ms(3), ms(1), ms(2)}, samples)
}

func TestPercentile_Hundred(t *testing.T) {
	sorted := make([]time.Duration, 100)
	for i := range sorted {
		sorted[i] = ms(i + 1)
	}
	assert.Equal(t, ms(50), Percentile(sorted, 0.50))
	assert.Equal(t, ms(95), Percentile(sorted, 0.95))
	assert.Equal(t, ms(99), Percentile(sorted, 0.99))
	assert.Equal(t, ms(1), Percentile(sorted, 0))
}
