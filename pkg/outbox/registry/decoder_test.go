package registry

import (
	"encoding/json"
	"testing"

	"github.com/lumenwell/lumen-backend/pkg/enums"
)

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventBadgeEarned, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded map[string]string
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	})

	input := json.RawMessage(`{"badge_slug":"week-of-flame"}`)
	output, err := reg.Decode(enums.EventBadgeEarned, 1, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outMap, ok := output.(map[string]string); !ok || outMap["badge_slug"] != "week-of-flame" {
		t.Fatalf("unexpected output %+v", output)
	}
}
