package explanation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/netmatch/internal/domain/match"
)

// row is the JSON value stored under a pair key.
type row struct {
	PairKey   string    `json:"pair_key"`
	UserA     string    `json:"user_a"`
	UserB     string    `json:"user_b"`
	Text      string    `json:"text"`
	ModelUsed string    `json:"model_used"`
	CreatedAt time.Time `json:"created_at"`
}

func marshal(e match.Explanation) ([]byte, error) {
	data, err := json.Marshal(row{
		PairKey:   string(e.PairKey()),
		UserA:     e.UserA(),
		UserB:     e.UserB(),
		Text:      e.Text(),
		ModelUsed: e.ModelUsed(),
		CreatedAt: e.CreatedAt(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal explanation: %w", err)
	}
	return data, nil
}

// unmarshal decodes a stored explanation and checks it belongs to want.
func unmarshal(data []byte, want match.PairKey) (match.Explanation, error) {
	var r row
	if err := json.Unmarshal(data, &r); err != nil {
		return match.Explanation{}, fmt.Errorf("unmarshal explanation: %w", err)
	}
	if r.Text == "" {
		return match.Explanation{}, fmt.Errorf("unmarshal explanation: empty text")
	}
	key := match.NewPairKey(r.UserA, r.UserB)
	if key != want {
		return match.Explanation{}, fmt.Errorf("unmarshal explanation: stored pair %q, requested %q", key, want)
	}
	return match.Reconstruct(key, r.UserA, r.UserB, r.Text, r.ModelUsed, r.CreatedAt), nil
}
