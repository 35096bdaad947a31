package trace

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Format is the rendering of trace events.
type Format uint8

const (
	FormatAuto Format = iota // chosen from the output path
	FormatText
	FormatNDJSON
)

var formatNames = names{"auto", "text", "ndjson"}

func (f Format) String() string { return formatNames.name(uint8(f)) }

// ParseFormat accepts auto, text or ndjson. "" means auto and "json" means
// ndjson.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "":
		return FormatAuto, nil
	case "json":
		return FormatNDJSON, nil
	}
	i, ok := formatNames.parse(s)
	if !ok {
		return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: %s)", s, formatNames.expected())
	}
	return Format(i), nil
}

// FormatEvent renders one event as a single line in the given format.
func FormatEvent(ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		return formatNDJSON(ev)
	}
	return formatText(ev)
}

// wireEvent is the NDJSON shape of an Event.
type wireEvent struct {
	Time      string            `json:"time"`
	Seq       uint64            `json:"seq"`
	Kind      string            `json:"kind"`
	Scope     string            `json:"scope"`
	SpanID    uint64            `json:"span_id"`
	ParentID  uint64            `json:"parent_id,omitempty"`
	GID       uint64            `json:"gid,omitempty"`
	Name      string            `json:"name"`
	Detail    string            `json:"detail,omitempty"`
	ElapsedUS int64             `json:"elapsed_us,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

func formatNDJSON(ev *Event) []byte {
	data, err := json.Marshal(wireEvent{
		Time:      ev.Time.Format(time.RFC3339Nano),
		Seq:       ev.Seq,
		Kind:      ev.Kind.String(),
		Scope:     ev.Scope.String(),
		SpanID:    ev.SpanID,
		ParentID:  ev.ParentID,
		GID:       ev.GID,
		Name:      ev.Name,
		Detail:    ev.Detail,
		ElapsedUS: ev.Elapsed.Microseconds(),
		Extra:     ev.Extra,
	})
	if err != nil {
		return nil
	}
	return append(data, '\n')
}

var kindMarks = map[Kind]string{
	KindSpanBegin: "→ ",
	KindSpanEnd:   "← ",
	KindPoint:     "• ",
	KindHeartbeat: "♡ ",
}

// formatText renders: 15:04:05.000000 [scope] → name (detail) +1.2ms {k=v}
func formatText(ev *Event) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%s] ", ev.Time.Format("15:04:05.000000"), ev.Scope)
	if ev.ParentID > 0 {
		sb.WriteString("  ")
	}
	sb.WriteString(kindMarks[ev.Kind])
	sb.WriteString(ev.Name)
	if ev.Detail != "" {
		fmt.Fprintf(&sb, " (%s)", ev.Detail)
	}
	if ev.Kind == KindSpanEnd && ev.Elapsed > 0 {
		fmt.Fprintf(&sb, " +%s", ev.Elapsed.Round(time.Microsecond))
	}
	if len(ev.Extra) > 0 {
		pairs := make([]string, 0, len(ev.Extra))
		for _, k := range slices.Sorted(maps.Keys(ev.Extra)) {
			pairs = append(pairs, k+"="+ev.Extra[k])
		}
		fmt.Fprintf(&sb, " {%s}", strings.Join(pairs, ", "))
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}
