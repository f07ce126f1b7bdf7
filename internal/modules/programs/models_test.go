package programs

import "testing"

func TestProgress(t *testing.T) {
	tests := []struct {
		name   string
		goal   int64
		raised int64
		want   int
	}{
		{"halfway", 1000, 500, 50},
		{"complete", 1000, 1000, 100},
		{"overfunded clamps to 100", 1000, 1500, 100},
		{"nothing raised", 1000, 0, 0},
		{"zero goal", 0, 500, 0},
		{"negative goal", -100, 500, 0},
		{"negative raised clamps to 0", 1000, -50, 0},
		{"rounds down", 3, 1, 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Program{GoalAmount: tt.goal, RaisedAmount: tt.raised}
			if got := p.Progress(); got != tt.want {
				t.Errorf("Progress() = %d, want %d", got, tt.want)
			}
		})
	}
}
