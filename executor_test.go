package refine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taggedFragment struct {
	role Role
	text string
}

func TestSubscription_TagsFragmentsWithActiveRole(t *testing.T) {
	var transitions [][2]Role
	var fragments []taggedFragment

	sub := NewSubscription(
		func(from, to Role) { transitions = append(transitions, [2]Role{from, to}) },
		func(role Role, text string) { fragments = append(fragments, taggedFragment{role, text}) },
	)

	sub.Fragment("preamble")
	sub.RoleChange(RoleProducer)
	sub.Fragment("{")
	sub.Fragment("")
	sub.RoleChange(RoleProducer)
	sub.Fragment("}")
	sub.RoleChange(RoleCritic)
	sub.Fragment("ok")

	assert.Equal(t, [][2]Role{
		{RoleNone, RoleProducer},
		{RoleProducer, RoleCritic},
	}, transitions)
	assert.Equal(t, []taggedFragment{
		{RoleNone, "preamble"},
		{RoleProducer, "{"},
		{RoleProducer, "}"},
		{RoleCritic, "ok"},
	}, fragments)
	assert.Equal(t, RoleCritic, sub.Role())
}

func TestSubscription_SerializesConcurrentFragments(t *testing.T) {
	var count int
	inCallback := false
	sub := NewSubscription(nil, func(Role, string) {
		// A concurrent callback would observe inCallback == true.
		if inCallback {
			t.Error("callbacks overlapped")
		}
		inCallback = true
		count++
		inCallback = false
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sub.Fragment("x")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, count)
}

func TestSubscription_NilIsSafe(t *testing.T) {
	var sub *Subscription
	sub.RoleChange(RoleProducer)
	sub.Fragment("x")
	assert.Equal(t, RoleNone, sub.Role())
}

func TestRoundExecutorFunc(t *testing.T) {
	var got RoundInput
	exec := RoundExecutorFunc(func(_ context.Context, in RoundInput, _ *Subscription) (RoundOutput, error) {
		got = in
		return RoundOutput{Producer: "p", Critic: "c"}, nil
	})

	out, err := exec.ExecuteRound(context.Background(), RoundInput{Subject: "s", Round: 2}, nil)

	require.NoError(t, err)
	assert.Equal(t, RoundOutput{Producer: "p", Critic: "c"}, out)
	assert.Equal(t, RoundInput{Subject: "s", Round: 2}, got)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		input   Config
		wantErr bool
	}{
		{name: "defaults are valid", input: DefaultConfig(), wantErr: false},
		{name: "threshold 1 is valid", input: DefaultConfig().WithThreshold(1), wantErr: false},
		{name: "threshold 0 is invalid", input: DefaultConfig().WithThreshold(0), wantErr: true},
		{name: "threshold 6 is invalid", input: DefaultConfig().WithThreshold(6), wantErr: true},
		{name: "zero budget is invalid", input: DefaultConfig().WithMaxIters(0), wantErr: true},
		{name: "zero config with defaults is valid", input: Config{}.WithDefaults(), wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidConfig))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExecutorError_Unwrap(t *testing.T) {
	cause := errors.New("unreachable")
	err := error(&ExecutorError{Round: 2, Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "round 2: executor failed: unreachable", err.Error())

	var execErr *ExecutorError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 2, execErr.Round)
}

func TestSourceForRole(t *testing.T) {
	assert.Equal(t, SourceProducer, SourceForRole(RoleProducer))
	assert.Equal(t, SourceCritic, SourceForRole(RoleCritic))
	assert.Equal(t, SourceControl, SourceForRole(RoleNone))
}
