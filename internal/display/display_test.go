package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sweeney/room-controller/internal/logic"
)

func TestFromSnapshot(t *testing.T) {
	snap := logic.Snapshot{
		Occupancy: logic.OccupancyState{Occupied: true},
		Climate:   &logic.ClimateSample{TemperatureC: 24.9, HumidityPct: 40},
		Light:     logic.LightSample{Percent: 30},
	}
	s := FromSnapshot(snap)
	if !s.Occupied || s.TempC != 24 || !s.TempOK || s.LightPct != 30 {
		t.Errorf("unexpected status: %+v", s)
	}
}

func TestFromSnapshotNoClimate(t *testing.T) {
	s := FromSnapshot(logic.Snapshot{Light: logic.LightSample{Percent: 80}})
	if s.TempOK {
		t.Error("expected TempOK=false without climate")
	}
	if s.Occupied {
		t.Error("expected free")
	}
}

func TestFromSnapshotNegativeTruncatesTowardZero(t *testing.T) {
	s := FromSnapshot(logic.Snapshot{Climate: &logic.ClimateSample{TemperatureC: -3.7}})
	if s.TempC != -3 {
		t.Errorf("got %d, want -3", s.TempC)
	}
}

func TestLines(t *testing.T) {
	tests := []struct {
		name string
		s    Status
		want [2]string
	}{
		{
			"occupied",
			Status{Occupied: true, TempC: 25, TempOK: true, LightPct: 30},
			[2]string{"OCCUPIED   T:25C", "Ambient:30%     "},
		},
		{
			"free",
			Status{TempC: 19, TempOK: true, LightPct: 100},
			[2]string{"FREE (ECO) T:19C", "Ambient:100%    "},
		},
		{
			"no climate",
			Status{Occupied: true, LightPct: 5},
			[2]string{"OCCUPIED   T:--C", "Ambient:5%      "},
		},
		{
			"wide temperature",
			Status{TempC: -10, TempOK: true},
			[2]string{"FREE (ECO T:-10C", "Ambient:0%      "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.s.Lines()
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			for i, line := range got {
				if len(line) != Columns {
					t.Errorf("line %d: length %d, want %d", i, len(line), Columns)
				}
			}
		})
	}
}

func TestWriterOnlyWritesChanges(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	s := Status{Occupied: true, TempC: 22, TempOK: true, LightPct: 50}
	w.Show(s)
	w.Show(s)
	w.Show(s)
	if n := strings.Count(buf.String(), "\n"); n != 2 {
		t.Errorf("expected 2 lines after repeated status, got %d", n)
	}

	s.Occupied = false
	w.Show(s)
	if n := strings.Count(buf.String(), "\n"); n != 4 {
		t.Errorf("expected 4 lines after change, got %d", n)
	}
	if !strings.Contains(buf.String(), "|FREE (ECO) T:22C|") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	if r.Last() != (Status{}) {
		t.Error("expected zero status when empty")
	}
	r.Show(Status{LightPct: 1})
	r.Show(Status{LightPct: 2})
	if len(r.Shown) != 2 || r.Last().LightPct != 2 {
		t.Errorf("unexpected recorder state: %+v", r.Shown)
	}
}
