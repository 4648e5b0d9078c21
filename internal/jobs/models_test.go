package jobs

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestProgressJSONKeepsZeroCounters(t *testing.T) {
	b, err := json.Marshal(Progress{
		Stage:   StatusCleaning,
		Current: 0,
		Total:   1,
		Message: "Formatting transcript...",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, `"current":0`) {
		t.Fatalf("zero current dropped: %s", s)
	}
	if !strings.Contains(s, `"total":1`) {
		t.Fatalf("total dropped: %s", s)
	}
}
