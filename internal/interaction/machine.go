// Package interaction is the client side state machine that decides, per
// interaction partner, whether a visit asks the gateway for a task or for
// grading, and turns the reply into presentation output.
package interaction

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kazz187/npcgate/internal/gateway"
	"github.com/kazz187/npcgate/pkg/cerr"
)

const DefaultGame = "azure-learning"

type Gateway interface {
	Task(ctx context.Context, game, partner string) (*gateway.NormalizedResponse, error)
	Grade(ctx context.Context, game, partner string) (*gateway.NormalizedResponse, error)
}

type Presenter interface {
	Present(ctx context.Context, partner string, out Output)
}

type Operation int

const (
	OperationNone Operation = iota
	OperationTask
	OperationGrade
)

func (o Operation) String() string {
	switch o {
	case OperationTask:
		return "task"
	case OperationGrade:
		return "grade"
	default:
		return "none"
	}
}

// Result describes one handled interaction event.
type Result struct {
	Partner   string
	Operation Operation // OperationNone when the event was ignored
	Output    Output
	Err       error // gateway failure, already reflected in Output
}

type Option func(*Machine)

func WithGame(game string) Option {
	return func(m *Machine) {
		if game != "" {
			m.game = game
		}
	}
}

func WithPresenter(p Presenter) Option {
	return func(m *Machine) {
		m.presenter = p
	}
}

type Machine struct {
	game      string
	repo      Repository
	gw        Gateway
	presenter Presenter

	// mu makes the in-flight check-and-set and every state update atomic.
	// It is never held across a gateway call.
	mu     sync.Mutex
	lastID uint64
}

func NewMachine(repo Repository, gw Gateway, opts ...Option) *Machine {
	m := &Machine{
		game: DefaultGame,
		repo: repo,
		gw:   gw,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) Game() string {
	return m.game
}

// Interact handles one interaction event for partner. At most one gateway
// call is outstanding per partner; events arriving meanwhile only produce
// a wait message. The returned error reports state store failures only.
func (m *Machine) Interact(ctx context.Context, partner string) (Result, error) {
	res := Result{Partner: partner}

	op, callID, err := m.begin(ctx, partner)
	if err != nil {
		return res, err
	}
	if op == OperationNone {
		res.Output = Output{Lines: []string{msgPleaseWait}}
		m.present(ctx, partner, res.Output)
		return res, nil
	}
	res.Operation = op

	slog.DebugContext(ctx, "calling gateway", "partner", partner, "operation", op.String(), "game", m.game)
	var resp *gateway.NormalizedResponse
	switch op {
	case OperationGrade:
		resp, res.Err = m.gw.Grade(ctx, m.game, partner)
	default:
		resp, res.Err = m.gw.Task(ctx, m.game, partner)
	}
	if res.Err == nil && resp == nil {
		res.Err = cerr.NewError(cerr.Internal, "empty gateway response", nil)
	}

	if err := m.finish(ctx, partner, callID, op, resp, res.Err); err != nil {
		return res, err
	}

	if res.Err != nil {
		slog.WarnContext(ctx, "gateway call failed", "partner", partner, "operation", op.String(), "error", res.Err)
		res.Output = failureOutput(res.Err)
	} else {
		res.Output = Render(resp, op == OperationGrade)
	}
	m.present(ctx, partner, res.Output)
	return res, nil
}

func (m *Machine) begin(ctx context.Context, partner string) (Operation, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.load(ctx, partner)
	if err != nil {
		return OperationNone, 0, err
	}
	if st.CallInFlight {
		return OperationNone, 0, nil
	}

	op := OperationTask
	if st.HasActiveTask && st.ConsecutiveInteractions >= 1 {
		op = OperationGrade
	}

	m.lastID++
	st.CallInFlight = true
	st.callID = m.lastID
	if err := m.repo.Save(ctx, st); err != nil {
		return OperationNone, 0, fmt.Errorf("failed to save state: %w", err)
	}
	return op, st.callID, nil
}

// finish releases the in-flight guard and, when the call produced a
// response, applies it. A failed call leaves the rest of the state as it
// was so a retry takes the same route.
func (m *Machine) finish(ctx context.Context, partner string, callID uint64, op Operation, resp *gateway.NormalizedResponse, callErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.repo.Get(ctx, partner)
	if cerr.IsCode(err, cerr.NotFound) {
		// reset while the call was outstanding
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	if st.callID != callID {
		return nil
	}

	st.CallInFlight = false
	st.callID = 0
	if callErr == nil {
		if op == OperationGrade {
			st.ConsecutiveInteractions = 0
			st.Phase = PhaseGrading
		}
		apply(st, resp)
	}
	if err := m.repo.Save(ctx, st); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

func apply(st *State, resp *gateway.NormalizedResponse) {
	st.LastResponse = resp
	if resp.TaskName != "" {
		st.TaskName = resp.TaskName
	}

	switch {
	case resp.NextPhase == gateway.PhaseTaskAssigned:
		if st.HasActiveTask {
			st.ConsecutiveInteractions++
		}
		st.HasActiveTask = true
		st.Phase = PhaseTaskAssigned
	case resp.NextPhase == gateway.PhaseReadyForNext || resp.TaskCompleted:
		st.HasActiveTask = false
		st.TaskName = ""
		st.ConsecutiveInteractions = 0
		st.Phase = PhaseNone
	case resp.NextPhase == gateway.PhaseBusyWithOtherNPC || resp.NextPhase == gateway.PhaseWrongNPC:
		st.Phase = PhaseCrossPartner
	case resp.NextPhase == gateway.PhaseNPCCooldown || resp.NextPhase == gateway.PhaseEncourageVariety:
		st.ConsecutiveInteractions = 0
	}
}

func failureOutput(err error) Output {
	if cerr.IsCode(err, cerr.UpstreamRejected) {
		return Output{Lines: []string{msgUnavailable}}
	}
	return Output{Lines: []string{msgNetworkError}}
}

func (m *Machine) load(ctx context.Context, partner string) (*State, error) {
	st, err := m.repo.Get(ctx, partner)
	if cerr.IsCode(err, cerr.NotFound) {
		return NewState(partner), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return st, nil
}

func (m *Machine) present(ctx context.Context, partner string, out Output) {
	if m.presenter != nil {
		m.presenter.Present(ctx, partner, out)
	}
}

// State returns the partner's state, or a fresh one if the partner has not
// been visited.
func (m *Machine) State(ctx context.Context, partner string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(ctx, partner)
}

func (m *Machine) States(ctx context.Context) ([]*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	states, err := m.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	return states, nil
}

// Reset drops the state of partner, or of every partner when partner is
// empty.
func (m *Machine) Reset(ctx context.Context, partner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if partner == "" {
		if err := m.repo.DeleteAll(ctx); err != nil {
			return fmt.Errorf("failed to reset states: %w", err)
		}
		slog.DebugContext(ctx, "reset all partner states")
		return nil
	}
	if err := m.repo.Delete(ctx, partner); err != nil {
		return fmt.Errorf("failed to reset state: %w", err)
	}
	slog.DebugContext(ctx, "reset partner state", "partner", partner)
	return nil
}
