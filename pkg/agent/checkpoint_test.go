package agent

import (
	"chef-agent-api/domain"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkpointerFactory func(t *testing.T) Checkpointer

func checkpointerContractTest(t *testing.T, name string, factory checkpointerFactory) {
	ctx := context.Background()

	t.Run(name+"/Load_NotFound", func(t *testing.T) {
		cp := factory(t)
		defer cp.Close()

		_, err := cp.Load(ctx, "missing")
		assert.ErrorIs(t, err, ErrCheckpointNotFound)
	})

	t.Run(name+"/Save_and_Load", func(t *testing.T) {
		cp := factory(t)
		defer cp.Close()

		state := &State{
			Messages: []Message{
				UserMessageWithImage("what can I cook?", "data:image/png;base64,AAAA"),
				{ID: "a1", Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "c1", Name: "present", Arguments: json.RawMessage(`{"n":1}`)}}},
			},
			Pending: &Interrupt{
				MessageID:      "a1",
				ActionRequests: []ActionRequest{{ToolCallID: "c1", Name: "present", Args: json.RawMessage(`{"n":1}`)}},
				ReviewConfigs:  []ReviewConfig{{ActionName: "present", AllowedDecisions: []string{"approve"}}},
			},
		}
		require.NoError(t, cp.Save(ctx, "t1", state))

		loaded, err := cp.Load(ctx, "t1")
		require.NoError(t, err)
		assert.True(t, loaded.Paused())
		require.Len(t, loaded.Messages, 2)
		assert.Equal(t, state.Messages[0].Parts, loaded.Messages[0].Parts)
		assert.JSONEq(t, `{"n":1}`, string(loaded.Messages[1].ToolCalls[0].Arguments))
		assert.Equal(t, "a1", loaded.Pending.MessageID)
	})

	t.Run(name+"/Save_Overwrite", func(t *testing.T) {
		cp := factory(t)
		defer cp.Close()

		require.NoError(t, cp.Save(ctx, "t1", &State{Messages: []Message{UserMessage("first")}}))
		require.NoError(t, cp.Save(ctx, "t1", &State{Messages: []Message{UserMessage("second")}}))

		loaded, err := cp.Load(ctx, "t1")
		require.NoError(t, err)
		require.Len(t, loaded.Messages, 1)
		assert.Equal(t, "second", loaded.Messages[0].Content)
	})

	t.Run(name+"/Delete", func(t *testing.T) {
		cp := factory(t)
		defer cp.Close()

		require.NoError(t, cp.Save(ctx, "t1", &State{}))
		require.NoError(t, cp.Save(ctx, "t2", &State{}))
		require.NoError(t, cp.Delete(ctx, "t1"))

		_, err := cp.Load(ctx, "t1")
		assert.ErrorIs(t, err, ErrCheckpointNotFound)
		_, err = cp.Load(ctx, "t2")
		assert.NoError(t, err)
	})
}

func TestCheckpointers(t *testing.T) {
	checkpointerContractTest(t, "Memory", func(t *testing.T) Checkpointer {
		return NewMemoryCheckpointer()
	})
	checkpointerContractTest(t, "SQLite", func(t *testing.T) Checkpointer {
		cp, err := NewSQLiteCheckpointer(filepath.Join(t.TempDir(), "checkpoints.db"), "general")
		require.NoError(t, err)
		return cp
	})
}

func TestSQLiteCheckpointer_NamespacesAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.db")
	general, err := NewSQLiteCheckpointer(path, "general")
	require.NoError(t, err)
	defer general.Close()
	require.NoError(t, general.Save(context.Background(), "t1", &State{}))

	// reopening an existing table works
	chef, err := NewSQLiteCheckpointer(path, "chef")
	require.NoError(t, err)
	defer chef.Close()
	_, err = chef.Load(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrCheckpointNotFound)
}

func TestAgent_StateSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.db")
	cp, err := NewSQLiteCheckpointer(path, "general")
	require.NoError(t, err)

	model := &scriptedModel{replies: []Message{replyCalls(ToolCall{ID: "c1", Name: "present"})}}
	a := New(Config{Name: "general", Model: model, Tools: []Tool{&countingTool{name: "present"}}, Checkpointer: cp, InterruptOn: []string{"present"}})
	require.NoError(t, a.Stream(context.Background(), "t1", UserMessage("cook"), func(Event) {}))
	require.NoError(t, cp.Close())

	reopened, err := NewSQLiteCheckpointer(path, "general")
	require.NoError(t, err)
	defer reopened.Close()

	present := &countingTool{name: "present"}
	model2 := &scriptedModel{replies: []Message{reply("saved")}}
	b := New(Config{Name: "general", Model: model2, Tools: []Tool{present}, Checkpointer: reopened, InterruptOn: []string{"present"}})
	require.NoError(t, b.Resume(context.Background(), "t1", []domain.Decision{{Type: domain.DecisionApprove}}, func(Event) {}))
	assert.Len(t, present.calls, 1)
}
