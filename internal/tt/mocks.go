package tt

import (
	"context"
	"strings"
	"sync"

	"github.com/rickchristie/refine"
)

// -----------------------------------------------------------------------------
// MockModel - implements refine.Model
// -----------------------------------------------------------------------------

// MockModel is a configurable mock that implements refine.Model. Each call consumes the next
// queued response and streams its chunks in order.
type MockModel struct {
	mu        sync.Mutex
	responses [][]string
	errors    []error
	callCount int

	// CapturedPrompts stores the prompt passed to each GenerateStream call.
	CapturedPrompts []refine.Prompt
}

// NewMockModel creates a new MockModel with no queued responses.
func NewMockModel() *MockModel {
	return &MockModel{}
}

// AddResponse queues a response streamed as the given chunks.
func (m *MockModel) AddResponse(chunks ...string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, chunks)
	m.errors = append(m.errors, nil)
	return m
}

// AddError queues an error for the next call.
func (m *MockModel) AddError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, nil)
	m.errors = append(m.errors, err)
	return m
}

// CallCount returns the number of times GenerateStream has been called.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// GenerateStream implements refine.Model. When the queue is exhausted the last response is
// repeated.
func (m *MockModel) GenerateStream(
	ctx context.Context,
	prompt refine.Prompt,
	onChunk func(chunk string) error,
) (*refine.Completion, error) {
	m.mu.Lock()
	idx := m.callCount
	m.callCount++
	m.CapturedPrompts = append(m.CapturedPrompts, prompt)
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	var (
		chunks []string
		err    error
	)
	if idx >= 0 {
		chunks, err = m.responses[idx], m.errors[idx]
	}
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	for _, chunk := range chunks {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		sb.WriteString(chunk)
		if onChunk != nil {
			if err := onChunk(chunk); err != nil {
				return nil, err
			}
		}
	}
	return &refine.Completion{
		Content: sb.String(),
		Info:    &refine.GenerationInfo{OutputTokens: len(chunks)},
	}, nil
}

var _ refine.Model = (*MockModel)(nil)

// -----------------------------------------------------------------------------
// MockExecutor - implements refine.RoundExecutor
// -----------------------------------------------------------------------------

// Round scripts one ExecuteRound invocation of a MockExecutor.
type Round struct {
	// Producer fragments are reported after announcing the producer role.
	Producer []string

	// Critic fragments are reported after announcing the critic role.
	Critic []string

	// Hold, when set, blocks the round between the producer and critic parts until it is
	// closed or the context is canceled.
	Hold chan struct{}

	// Return makes ExecuteRound also return the joined texts in RoundOutput.
	Return bool

	// SkipRoles reports every fragment without announcing roles.
	SkipRoles bool

	// Err is returned instead of running the round.
	Err error
}

// MockExecutor is a scripted round executor. Round n of a session plays the n-th scripted
// round; rounds past the end of the script replay the last one.
type MockExecutor struct {
	mu        sync.Mutex
	rounds    []Round
	inputs    []refine.RoundInput
	completed int

	onComplete func(in refine.RoundInput)
}

// NewMockExecutor creates a MockExecutor playing the given rounds.
func NewMockExecutor(rounds ...Round) *MockExecutor {
	return &MockExecutor{rounds: rounds}
}

// OnComplete sets a hook called when an invocation returns, whatever the outcome.
func (e *MockExecutor) OnComplete(fn func(in refine.RoundInput)) *MockExecutor {
	e.onComplete = fn
	return e
}

// Inputs returns the inputs of every invocation so far.
func (e *MockExecutor) Inputs() []refine.RoundInput {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]refine.RoundInput(nil), e.inputs...)
}

// CallCount returns the number of invocations so far.
func (e *MockExecutor) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.inputs)
}

// Completed returns the number of invocations that returned.
func (e *MockExecutor) Completed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.completed
}

// ExecuteRound implements refine.RoundExecutor.
func (e *MockExecutor) ExecuteRound(
	ctx context.Context,
	in refine.RoundInput,
	sub *refine.Subscription,
) (refine.RoundOutput, error) {
	e.mu.Lock()
	e.inputs = append(e.inputs, in)
	round := e.script(in.Round)
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.completed++
		e.mu.Unlock()
		if e.onComplete != nil {
			e.onComplete(in)
		}
	}()

	if round.Err != nil {
		return refine.RoundOutput{}, round.Err
	}

	if !round.SkipRoles {
		sub.RoleChange(refine.RoleProducer)
	}
	for _, f := range round.Producer {
		sub.Fragment(f)
	}

	if round.Hold != nil {
		select {
		case <-round.Hold:
		case <-ctx.Done():
			return refine.RoundOutput{}, ctx.Err()
		}
	}

	if !round.SkipRoles {
		sub.RoleChange(refine.RoleCritic)
	}
	for _, f := range round.Critic {
		sub.Fragment(f)
	}

	if !round.Return {
		return refine.RoundOutput{}, nil
	}
	return refine.RoundOutput{
		Producer: strings.Join(round.Producer, ""),
		Critic:   strings.Join(round.Critic, ""),
	}, nil
}

func (e *MockExecutor) script(n int) Round {
	if len(e.rounds) == 0 {
		return Round{}
	}
	if n < 1 {
		n = 1
	}
	if n > len(e.rounds) {
		n = len(e.rounds)
	}
	return e.rounds[n-1]
}

var _ refine.RoundExecutor = (*MockExecutor)(nil)
