package core

import "testing"

func item(status Status) *MapItem {
	mi := NewMapItem("item", nil)
	mi.AppendRun(&Run{JobID: "1"})
	mi.SetStatus(status)
	return mi
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name  string
		items []*MapItem
		want  Status
	}{
		{
			name:  "all finished",
			items: []*MapItem{item(StatusFinished), item(StatusFinished)},
			want:  StatusFinished,
		},
		{
			name:  "any running keeps step running",
			items: []*MapItem{item(StatusFinished), item(StatusRunning)},
			want:  StatusRunning,
		},
		{
			name:  "pending counts as running",
			items: []*MapItem{item(StatusPending), item(StatusFailed)},
			want:  StatusRunning,
		},
		{
			name:  "failed wins once nothing is in flight",
			items: []*MapItem{item(StatusFinished), item(StatusFailed)},
			want:  StatusFailed,
		},
		{
			name:  "running takes precedence over failed",
			items: []*MapItem{item(StatusFailed), item(StatusRunning)},
			want:  StatusRunning,
		},
		{
			name:  "empty registry is vacuously finished",
			items: nil,
			want:  StatusFinished,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Aggregate(tt.items); got != tt.want {
				t.Errorf("Aggregate() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	for status, want := range map[Status]bool{
		StatusPending:  false,
		StatusRunning:  false,
		StatusFinished: true,
		StatusFailed:   true,
	} {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}
