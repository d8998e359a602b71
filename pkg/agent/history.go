package agent

// Removal marks a message for deletion from the conversation state.
type Removal struct {
	ID string
}

// TrimHistory returns removal markers for every message older than the most
// recent limit. Nothing is returned when the history already fits.
func TrimHistory(messages []Message, limit int) []Removal {
	if limit <= 0 || len(messages) <= limit {
		return nil
	}
	stale := messages[:len(messages)-limit]
	removals := make([]Removal, 0, len(stale))
	for _, m := range stale {
		removals = append(removals, Removal{ID: m.ID})
	}
	return removals
}

// ApplyRemovals drops every message named by a removal marker and keeps the
// order of the rest.
func ApplyRemovals(messages []Message, removals []Removal) []Message {
	if len(removals) == 0 {
		return messages
	}
	drop := make(map[string]struct{}, len(removals))
	for _, r := range removals {
		drop[r.ID] = struct{}{}
	}
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if _, ok := drop[m.ID]; ok {
			continue
		}
		out = append(out, m)
	}
	return out
}

// RepairHistory removes orphaned tool traffic so the sequence is accepted by
// the model provider: every assistant turn with tool calls keeps a result for
// each call, and every tool result sits in the block right after the
// assistant turn that requested it. Both passes repeat until stable since
// dropping one side can orphan the other.
func RepairHistory(messages []Message) []Message {
	out := messages
	for {
		next := dropOrphanToolResults(dropOrphanToolCalls(out))
		if len(next) == len(out) {
			return next
		}
		out = next
	}
}

// dropOrphanToolCalls drops assistant turns with an invocation that has no
// result anywhere after it.
func dropOrphanToolCalls(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	for i, m := range messages {
		if m.HasToolCalls() && !allAnswered(m.ToolCalls, messages[i+1:]) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func allAnswered(calls []ToolCall, after []Message) bool {
	answered := make(map[string]struct{})
	for _, m := range after {
		if m.Role == RoleTool {
			answered[m.ToolCallID] = struct{}{}
		}
	}
	for _, c := range calls {
		if _, ok := answered[c.ID]; !ok {
			return false
		}
	}
	return true
}

// dropOrphanToolResults drops tool results that are not part of the contiguous
// block following an assistant turn with the matching call id. Duplicate
// results for one call are dropped as well.
func dropOrphanToolResults(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	var open map[string]bool
	for _, m := range messages {
		switch {
		case m.Role == RoleTool:
			if open != nil && open[m.ToolCallID] {
				open[m.ToolCallID] = false
				out = append(out, m)
			}
			continue
		case m.HasToolCalls():
			open = make(map[string]bool, len(m.ToolCalls))
			for _, c := range m.ToolCalls {
				open[c.ID] = true
			}
		default:
			open = nil
		}
		out = append(out, m)
	}
	return out
}
