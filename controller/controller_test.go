package controller_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rickchristie/refine"
	"github.com/rickchristie/refine/controller"
	"github.com/rickchristie/refine/internal/tt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	draftA = tt.DraftText("Alpha", []string{"X", "a", "b"})
	draftB = tt.DraftText("Beta", []string{"Y", "c"})
)

func TestController_Run(t *testing.T) {
	type input struct {
		config refine.Config
		rounds []tt.Round
	}

	type expected struct {
		reason    refine.TerminationReason
		rounds    int
		calls     int
		title     string
		rating    int
		inputs    []refine.RoundInput
		recorded  []string
		finalFeed string
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name: "always rating zero exhausts the budget",
			input: input{
				config: refine.DefaultConfig(),
				rounds: []tt.Round{
					{Producer: tt.Chunks(draftA, 7), Critic: []string{`{"summary": "weak"}`}},
				},
			},
			expected: expected{
				reason: refine.ReasonExhausted,
				rounds: 3,
				calls:  3,
				title:  "Alpha",
				rating: 0,
			},
		},
		{
			name: "threshold met in round one stops before round two",
			input: input{
				config: refine.DefaultConfig().WithThreshold(4).WithMaxIters(3),
				rounds: []tt.Round{
					{Producer: []string{draftA}, Critic: []string{tt.CritiqueText(4)}},
					{Producer: []string{draftB}, Critic: []string{tt.CritiqueText(5)}},
				},
			},
			expected: expected{
				reason: refine.ReasonThresholdMet,
				rounds: 1,
				calls:  1,
				title:  "Alpha",
				rating: 4,
				recorded: []string{
					"before(1)",
					"role(1,producer)",
					"fragment(1,producer)",
					"role(1,critic)",
					"draft(1)",
					"fragment(1,critic)",
					"after(1)",
					"termination(threshold-met)",
				},
			},
		},
		{
			name: "draft and resolved feedback are carried into the next round",
			input: input{
				config: refine.DefaultConfig().WithMaxIters(2),
				rounds: []tt.Round{
					{
						Producer: []string{draftA},
						Critic: []string{tt.CritiqueText(2,
							"sections[0].section_bullets[1]", "cite a source",
							"sections[0].section_bullets[9]", "missing",
						)},
					},
					{Producer: []string{draftB}, Critic: []string{tt.CritiqueText(3, "title", "too short")}},
				},
			},
			expected: expected{
				reason: refine.ReasonExhausted,
				rounds: 2,
				calls:  2,
				title:  "Beta",
				rating: 3,
				inputs: []refine.RoundInput{
					{Subject: "exports", Round: 1},
					{
						Subject:  "exports",
						Round:    2,
						Draft:    draftA,
						Feedback: "b: cite a source\nsections[0].section_bullets[9]: missing",
					},
				},
				finalFeed: "Beta: too short",
			},
		},
		{
			name: "failed draft recovery keeps the previous draft and counts the round",
			input: input{
				config: refine.DefaultConfig().WithMaxIters(2),
				rounds: []tt.Round{
					{Producer: []string{draftA}, Critic: []string{tt.CritiqueText(1)}},
					{Producer: []string{"I could not write a draft"}, Critic: []string{tt.CritiqueText(1)}},
				},
			},
			expected: expected{
				reason: refine.ReasonExhausted,
				rounds: 2,
				calls:  2,
				title:  "Alpha",
				rating: 1,
				recorded: []string{
					"before(1)",
					"role(1,producer)",
					"fragment(1,producer)",
					"role(1,critic)",
					"draft(1)",
					"fragment(1,critic)",
					"after(1)",
					"before(2)",
					"role(2,producer)",
					"fragment(2,producer)",
					"role(2,critic)",
					"recovery-failed(2,producer)",
					"fragment(2,critic)",
					"after(2)",
					"termination(exhausted)",
				},
			},
		},
		{
			name: "failed critique recovery rates zero and keeps feedback",
			input: input{
				config: refine.DefaultConfig().WithMaxIters(3),
				rounds: []tt.Round{
					{Producer: []string{draftA}, Critic: []string{tt.CritiqueText(2, "title", "vague")}},
					{Producer: []string{draftA}, Critic: []string{"looks fine to me"}},
					{Producer: []string{draftA}, Critic: []string{"still fine"}},
				},
			},
			expected: expected{
				reason: refine.ReasonExhausted,
				rounds: 3,
				calls:  3,
				title:  "Alpha",
				rating: 0,
				inputs: []refine.RoundInput{
					{Subject: "exports", Round: 1},
					{Subject: "exports", Round: 2, Draft: draftA, Feedback: "Alpha: vague"},
					{Subject: "exports", Round: 3, Draft: draftA, Feedback: "Alpha: vague"},
				},
				finalFeed: "Alpha: vague",
			},
		},
		{
			name: "returned text is used when nothing was streamed",
			input: input{
				config: refine.DefaultConfig(),
				rounds: []tt.Round{
					{
						Producer:  []string{"Here you go:\n```json\n" + draftB + "\n```"},
						Critic:    []string{tt.CritiqueText(5)},
						SkipRoles: true,
						Return:    true,
					},
				},
			},
			expected: expected{
				reason: refine.ReasonThresholdMet,
				rounds: 1,
				calls:  1,
				title:  "Beta",
				rating: 5,
				recorded: []string{
					"before(1)",
					"fragment(1,)",
					"fragment(1,)",
					"draft(1)",
					"after(1)",
					"termination(threshold-met)",
				},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := tt.NewMockExecutor(tc.input.rounds...)
			recorder := tt.NewRecorder()
			ctrl := controller.New(exec, tc.input.config).RegisterHook(recorder)

			result, err := ctrl.Run(context.Background(), "exports")

			require.NoError(t, err)
			assert.Equal(t, tc.expected.reason, result.Reason)
			assert.Equal(t, tc.expected.rounds, result.Rounds)
			assert.Equal(t, tc.expected.calls, exec.CallCount())
			assert.Equal(t, tc.expected.title, result.Draft.Title)
			assert.Equal(t, tc.expected.rating, result.Critique.Rating)
			if tc.expected.inputs != nil {
				assert.Equal(t, tc.expected.inputs, exec.Inputs())
			}
			if tc.expected.recorded != nil {
				assert.Equal(t, tc.expected.recorded, recorder.Names())
			}
			if tc.expected.finalFeed != "" {
				assert.Equal(t, tc.expected.finalFeed, ctrl.Snapshot().Feedback)
			}
		})
	}
}

func TestController_Run_ExecutorError(t *testing.T) {
	boom := errors.New("model unreachable")
	exec := tt.NewMockExecutor(
		tt.Round{Producer: []string{draftA}, Critic: []string{tt.CritiqueText(1)}},
		tt.Round{Err: boom},
	)
	recorder := tt.NewRecorder()
	ctrl := controller.New(exec, refine.DefaultConfig()).RegisterHook(recorder)

	result, err := ctrl.Run(context.Background(), "exports")

	var execErr *refine.ExecutorError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 2, execErr.Round)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, refine.ReasonError, result.Reason)
	assert.Equal(t, "Alpha", result.Draft.Title)
	assert.Equal(t, controller.PhaseFailed, ctrl.Snapshot().Phase)

	events := recorder.Events()
	term, ok := events[len(events)-1].(refine.TerminationEvent)
	require.True(t, ok)
	assert.Equal(t, refine.ReasonError, term.Reason)
	assert.ErrorIs(t, term.Err, boom)
}

func TestController_Run_CanceledContext(t *testing.T) {
	hold := make(chan struct{})
	exec := tt.NewMockExecutor(tt.Round{Producer: []string{draftA}, Hold: hold})
	ctrl := controller.New(exec, refine.DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Run(ctx, "exports")
		done <- err
	}()

	require.Eventually(t, func() bool { return exec.CallCount() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 1, exec.Completed())
}

func TestController_Run_Concurrent(t *testing.T) {
	hold := make(chan struct{})
	exec := tt.NewMockExecutor(tt.Round{
		Producer: []string{draftA},
		Critic:   []string{tt.CritiqueText(5)},
		Hold:     hold,
	})
	ctrl := controller.New(exec, refine.DefaultConfig())

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Run(context.Background(), "first")
		done <- err
	}()
	require.Eventually(t, func() bool { return exec.CallCount() == 1 }, time.Second, time.Millisecond)

	_, err := ctrl.Run(context.Background(), "second")
	assert.ErrorIs(t, err, controller.ErrRunning)

	close(hold)
	assert.NoError(t, <-done)
}

func TestController_Run_ResetsStateBetweenSessions(t *testing.T) {
	exec := tt.NewMockExecutor(tt.Round{
		Producer: []string{draftA},
		Critic:   []string{tt.CritiqueText(2, "title", "vague")},
	})
	ctrl := controller.New(exec, refine.DefaultConfig().WithMaxIters(1))

	_, err := ctrl.Run(context.Background(), "first")
	require.NoError(t, err)
	_, err = ctrl.Run(context.Background(), "second")
	require.NoError(t, err)

	inputs := exec.Inputs()
	require.Len(t, inputs, 2)
	assert.Equal(t, refine.RoundInput{Subject: "second", Round: 1}, inputs[1])
}

func TestController_Run_InvalidConfig(t *testing.T) {
	exec := tt.NewMockExecutor()
	ctrl := controller.New(exec, refine.Config{Threshold: 9})

	_, err := ctrl.Run(context.Background(), "exports")

	assert.ErrorIs(t, err, refine.ErrInvalidConfig)
	assert.Equal(t, 0, exec.CallCount())
}

func TestController_RunHooksAreScopedToOneRun(t *testing.T) {
	exec := tt.NewMockExecutor(tt.Round{Producer: []string{draftA}, Critic: []string{tt.CritiqueText(5)}})
	ctrl := controller.New(exec, refine.DefaultConfig())
	first := tt.NewRecorder()

	_, err := ctrl.Run(context.Background(), "a", controller.WithRunHooks(first))
	require.NoError(t, err)
	seen := len(first.Events())

	_, err = ctrl.Run(context.Background(), "b")
	require.NoError(t, err)

	assert.NotZero(t, seen)
	assert.Len(t, first.Events(), seen)
}

func TestController_Snapshot(t *testing.T) {
	exec := tt.NewMockExecutor(tt.Round{Producer: []string{draftA}, Critic: []string{tt.CritiqueText(5)}})
	ctrl := controller.New(exec, refine.Config{})

	assert.Equal(t, controller.PhaseIdle, ctrl.Snapshot().Phase)
	assert.Equal(t, refine.DefaultConfig(), ctrl.Config())

	_, err := ctrl.Run(context.Background(), "exports")
	require.NoError(t, err)

	snap := ctrl.Snapshot()
	assert.Equal(t, controller.PhaseDone, snap.Phase)
	assert.Equal(t, 1, snap.Round)
	assert.Equal(t, "Alpha", snap.Draft.Title)
	assert.True(t, snap.Phase.IsTerminal())
}
