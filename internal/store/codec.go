// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/grokchat/internal/model"
)

// =============================================================================
// STORED TURN TYPE
// =============================================================================

// storedTurn is the JSON shape of a persisted turn. Timestamps are
// ISO-8601 strings so the stored blob stays portable and inspectable.
type storedTurn struct {
	ID        string  `json:"id"`
	Role      string  `json:"role"`
	Content   string  `json:"content"`
	Timestamp string  `json:"timestamp"`
	Tokens    int     `json:"tokens,omitempty"`
	Cost      float64 `json:"cost,omitempty"`
}

// =============================================================================
// CODEC
// =============================================================================

// EncodeTurns serializes a turn log to its stored JSON form.
func EncodeTurns(turns []*model.Turn) (string, error) {
	stored := make([]storedTurn, 0, len(turns))
	for _, t := range turns {
		stored = append(stored, storedTurn{
			ID:        t.ID,
			Role:      string(t.Role),
			Content:   t.Content,
			Timestamp: t.Timestamp.Format(time.RFC3339Nano),
			Tokens:    t.Tokens,
			Cost:      t.Cost,
		})
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeTurns deserializes a stored turn log. Malformed input of any
// kind yields an empty log rather than an error: a corrupt blob must
// never prevent the chat from starting.
func DecodeTurns(raw string) []*model.Turn {
	var stored []storedTurn
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return []*model.Turn{}
	}

	turns := make([]*model.Turn, 0, len(stored))
	for _, st := range stored {
		ts, err := time.Parse(time.RFC3339Nano, st.Timestamp)
		if err != nil {
			return []*model.Turn{}
		}
		turns = append(turns, &model.Turn{
			ID:        st.ID,
			Role:      model.Role(st.Role),
			Content:   st.Content,
			Timestamp: ts,
			Tokens:    st.Tokens,
			Cost:      st.Cost,
		})
	}
	return turns
}
