// Package ankiconnecttest provides a scripted ankiconnect.Invoker for tests.
package ankiconnecttest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Call records one invocation.
type Call struct {
	Action string
	Params map[string]any
}

type reply struct {
	result json.RawMessage
	err    error
}

// Invoker replays queued replies per action in order. The last reply for an
// action repeats once the queue is drained. Unscripted actions fail.
type Invoker struct {
	mu      sync.Mutex
	replies map[string][]reply
	calls   []Call
}

// New returns an empty Invoker.
func New() *Invoker {
	return &Invoker{replies: make(map[string][]reply)}
}

// Result queues a successful reply. v is marshaled to JSON; nil means null.
func (f *Invoker) Result(action string, v any) *Invoker {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("ankiconnecttest: cannot marshal result for %s: %v", action, err))
	}
	return f.push(action, reply{result: raw})
}

// Error queues a failing reply.
func (f *Invoker) Error(action string, err error) *Invoker {
	return f.push(action, reply{err: err})
}

func (f *Invoker) push(action string, r reply) *Invoker {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[action] = append(f.replies[action], r)
	return f
}

// Invoke implements ankiconnect.Invoker.
func (f *Invoker) Invoke(_ context.Context, action string, params map[string]any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, Call{Action: action, Params: params})

	queue := f.replies[action]
	if len(queue) == 0 {
		return nil, fmt.Errorf("ankiconnecttest: unscripted action %q", action)
	}
	r := queue[0]
	if len(queue) > 1 {
		f.replies[action] = queue[1:]
	}
	return r.result, r.err
}

// Calls returns every recorded invocation in order.
func (f *Invoker) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount returns how many times action was invoked. An empty action
// counts every call.
func (f *Invoker) CallCount(action string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if action == "" {
		return len(f.calls)
	}
	n := 0
	for _, c := range f.calls {
		if c.Action == action {
			n++
		}
	}
	return n
}

// LastParams returns the params of the most recent call to action, or nil.
func (f *Invoker) LastParams(action string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Action == action {
			return f.calls[i].Params
		}
	}
	return nil
}
