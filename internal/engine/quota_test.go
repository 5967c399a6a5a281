package engine

import "testing"

func TestQuotaStateOf(t *testing.T) {
	tests := []struct {
		name                string
		countPos, targetPos int
		countNeg, targetNeg int
		want                quotaState
	}{
		{"nothing met", 0, 2, 0, 1, needBoth},
		{"positive met", 2, 2, 0, 1, needNegativeOnly},
		{"positive over", 3, 2, 0, 1, needNegativeOnly},
		{"negative met", 0, 2, 1, 1, needPositiveOnly},
		{"both met", 2, 2, 1, 1, quotaSatisfied},
		{"zero targets satisfied immediately", 0, 0, 0, 0, quotaSatisfied},
		{"zero positive target", 0, 0, 0, 1, needNegativeOnly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := quotaStateOf(tt.countPos, tt.targetPos, tt.countNeg, tt.targetNeg)
			if got != tt.want {
				t.Errorf("quotaStateOf(%d,%d,%d,%d) = %s, want %s",
					tt.countPos, tt.targetPos, tt.countNeg, tt.targetNeg, got, tt.want)
			}
		})
	}
}

func TestDiscardLabel(t *testing.T) {
	tests := []struct {
		name  string
		state quotaState
		label int
		want  bool
	}{
		{"need both keeps positive", needBoth, 1, false},
		{"need both keeps negative", needBoth, 0, false},
		{"need negative drops positive", needNegativeOnly, 1, true},
		{"need negative keeps negative", needNegativeOnly, 0, false},
		{"need positive drops negative", needPositiveOnly, 0, true},
		{"need positive keeps positive", needPositiveOnly, 1, false},
		{"satisfied keeps everything", quotaSatisfied, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := discardLabel(tt.state, tt.label); got != tt.want {
				t.Errorf("discardLabel(%s, %d) = %t, want %t", tt.state, tt.label, got, tt.want)
			}
		})
	}
}
