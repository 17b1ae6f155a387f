package logging

import "time"

// #region trace-entry
// TraceEntry is a single row in the trace_log table.
type TraceEntry struct {
	ID        int64
	TurnID    string
	Step      string // retrieval state or decision name
	Detail    string
	CreatedAt time.Time
}

// #endregion trace-entry

// #region turn-record
// TurnRecord summarizes one turn. Serialized as JSON into the detail of the
// turn's "turn_summary" row.
type TurnRecord struct {
	TurnID   string `json:"turn_id"`
	Prompt   string `json:"prompt"`
	Searched bool   `json:"searched"`
	GateRaw  string `json:"gate_raw,omitempty"`

	Query           string   `json:"query,omitempty"`
	Results         int      `json:"results"`
	Tried           []string `json:"tried,omitempty"` // links in the order they were extracted
	StaleSelections int      `json:"stale_selections"`

	Found  bool   `json:"found"`
	Source string `json:"source,omitempty"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

// #endregion turn-record
