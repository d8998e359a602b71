package agent

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func user(id string) Message { return Message{ID: id, Role: RoleUser, Content: id} }

func text(id string) Message { return Message{ID: id, Role: RoleAssistant, Content: id} }

func calls(id string, callIDs ...string) Message {
	m := Message{ID: id, Role: RoleAssistant}
	for _, c := range callIDs {
		m.ToolCalls = append(m.ToolCalls, ToolCall{ID: c, Name: "t"})
	}
	return m
}

func result(id, callID string) Message {
	return Message{ID: id, Role: RoleTool, ToolCallID: callID, Name: "t"}
}

func ids(messages []Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.ID)
	}
	return out
}

func TestTrimHistory(t *testing.T) {
	var msgs []Message
	for i := 0; i < 14; i++ {
		msgs = append(msgs, user(fmt.Sprintf("m%d", i)))
	}

	removals := TrimHistory(msgs, 10)
	require.Len(t, removals, 4)
	kept := ApplyRemovals(msgs, removals)
	assert.Equal(t, ids(msgs[4:]), ids(kept))

	assert.Nil(t, TrimHistory(msgs[:10], 10))
	assert.Nil(t, TrimHistory(msgs, 0))
}

func TestTrimHistory_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 0; n < 200; n++ {
		msgs := randomHistory(rng, rng.Intn(30))
		kept := ApplyRemovals(msgs, TrimHistory(msgs, 10))

		assert.LessOrEqual(t, len(kept), 10)
		start := len(msgs) - len(kept)
		assert.Equal(t, ids(msgs[start:]), ids(kept))
	}
}

func TestRepairHistory_Cases(t *testing.T) {
	cases := []struct {
		name string
		in   []Message
		want []string
	}{
		{
			name: "complete exchange kept",
			in:   []Message{user("u1"), calls("a1", "c1", "c2"), result("r1", "c1"), result("r2", "c2"), text("a2")},
			want: []string{"u1", "a1", "r1", "r2", "a2"},
		},
		{
			name: "unanswered call dropped",
			in:   []Message{user("u1"), calls("a1", "c1"), user("u2")},
			want: []string{"u1", "u2"},
		},
		{
			name: "partially answered call dropped with its result",
			in:   []Message{user("u1"), calls("a1", "c1", "c2"), result("r1", "c1"), user("u2")},
			want: []string{"u1", "u2"},
		},
		{
			name: "leading result without its call dropped",
			in:   []Message{result("r0", "c0"), user("u1"), text("a1")},
			want: []string{"u1", "a1"},
		},
		{
			name: "result after an unrelated turn dropped and call removed",
			in:   []Message{user("u1"), calls("a1", "c1"), user("u2"), result("r1", "c1")},
			want: []string{"u1", "u2"},
		},
		{
			name: "duplicate result dropped",
			in:   []Message{user("u1"), calls("a1", "c1"), result("r1", "c1"), result("r1b", "c1"), text("a2")},
			want: []string{"u1", "a1", "r1", "a2"},
		},
		{
			name: "result for another call id dropped",
			in:   []Message{user("u1"), calls("a1", "c1"), result("rx", "cx"), result("r1", "c1")},
			want: []string{"u1", "a1", "r1"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(RepairHistory(tc.in)))
		})
	}
}

func TestRepairHistory_AfterTrim(t *testing.T) {
	// trimming severs the first call from its result
	msgs := []Message{
		user("u1"), calls("a1", "c1"), result("r1", "c1"), text("a2"),
		user("u2"), text("a3"),
	}
	kept := ApplyRemovals(msgs, TrimHistory(msgs, 4))
	assert.Equal(t, []string{"r1", "a2", "u2", "a3"}, ids(kept))
	assert.Equal(t, []string{"a2", "u2", "a3"}, ids(RepairHistory(kept)))
}

func TestRepairHistory_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for n := 0; n < 500; n++ {
		msgs := randomHistory(rng, rng.Intn(25))
		repaired := RepairHistory(msgs)
		assertWellFormed(t, repaired)
		assertSubsequence(t, msgs, repaired)
		assert.Equal(t, ids(repaired), ids(RepairHistory(repaired)))
	}
}

func assertWellFormed(t *testing.T, msgs []Message) {
	t.Helper()
	for i, m := range msgs {
		if m.Role == RoleTool {
			j := i - 1
			for j >= 0 && msgs[j].Role == RoleTool {
				j--
			}
			require.GreaterOrEqual(t, j, 0, "tool result %s has no preceding call", m.ID)
			require.True(t, msgs[j].HasToolCalls(), "tool result %s does not follow a call", m.ID)
			found := false
			for _, c := range msgs[j].ToolCalls {
				if c.ID == m.ToolCallID {
					found = true
				}
			}
			require.True(t, found, "tool result %s has no matching call id", m.ID)
		}
		if m.HasToolCalls() {
			for _, c := range m.ToolCalls {
				found := false
				for _, after := range msgs[i+1:] {
					if after.Role == RoleTool && after.ToolCallID == c.ID {
						found = true
					}
				}
				require.True(t, found, "call %s of %s is unresolved", c.ID, m.ID)
			}
		}
	}
}

func assertSubsequence(t *testing.T, full, sub []Message) {
	t.Helper()
	j := 0
	for _, m := range full {
		if j < len(sub) && sub[j].ID == m.ID {
			j++
		}
	}
	assert.Equal(t, len(sub), j, "repair reordered messages")
}

// randomHistory builds mostly valid exchanges with random damage applied.
func randomHistory(rng *rand.Rand, n int) []Message {
	var msgs []Message
	seq := 0
	next := func(prefix string) string {
		seq++
		return fmt.Sprintf("%s%d", prefix, seq)
	}
	for len(msgs) < n {
		switch rng.Intn(5) {
		case 0:
			msgs = append(msgs, user(next("u")))
		case 1:
			msgs = append(msgs, text(next("a")))
		case 2, 3:
			k := 1 + rng.Intn(3)
			var callIDs []string
			for i := 0; i < k; i++ {
				callIDs = append(callIDs, next("c"))
			}
			msgs = append(msgs, calls(next("a"), callIDs...))
			for _, c := range callIDs {
				if rng.Intn(6) == 0 {
					continue
				}
				msgs = append(msgs, result(next("r"), c))
				if rng.Intn(8) == 0 {
					msgs = append(msgs, result(next("r"), c))
				}
			}
		case 4:
			msgs = append(msgs, result(next("r"), next("c")))
		}
	}
	if rng.Intn(3) == 0 && len(msgs) > 2 {
		i := rng.Intn(len(msgs))
		msgs = append(msgs[:i], msgs[i+1:]...)
	}
	return msgs
}
