// Package fakeexec provides a scripted executor.Executor for tests.
package fakeexec

import (
	"context"
	"strings"
	"sync"

	"github.com/enginrect/ovs-bridge-agent/internal/infra/executor"
)

type Response struct {
	Out string
	Err error
}

type rule struct {
	prefix string
	resps  []Response
	next   int
}

// Executor answers commands by the longest matching argv prefix; on a tie the
// rule added last wins. A rule with several responses hands them out in order
// and then repeats the last one. Unscripted commands fail with exit code 127.
type Executor struct {
	mu    sync.Mutex
	rules []*rule
	calls [][]string
}

func New() *Executor { return &Executor{} }

func (e *Executor) On(prefix, out string) *Executor {
	return e.OnSeq(prefix, Response{Out: out})
}

func (e *Executor) Fail(prefix string, code int, stderr string) *Executor {
	return e.OnSeq(prefix, Response{Err: &executor.CommandError{
		Argv:     strings.Fields(prefix),
		ExitCode: code,
		Stderr:   stderr,
	}})
}

func (e *Executor) OnSeq(prefix string, resps ...Response) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, &rule{prefix: prefix, resps: resps})
	return e
}

func (e *Executor) Run(_ context.Context, argv []string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, append([]string(nil), argv...))

	joined := strings.Join(argv, " ")
	var best *rule
	for _, r := range e.rules {
		if joined != r.prefix && !strings.HasPrefix(joined, r.prefix+" ") {
			continue
		}
		if best == nil || len(r.prefix) >= len(best.prefix) {
			best = r
		}
	}
	if best == nil || len(best.resps) == 0 {
		return "", &executor.CommandError{Argv: argv, ExitCode: 127, Stderr: "command not scripted"}
	}
	resp := best.resps[best.next]
	if best.next < len(best.resps)-1 {
		best.next++
	}
	return resp.Out, resp.Err
}

// Calls returns every argv seen so far.
func (e *Executor) Calls() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]string(nil), e.calls...)
}

// Commands returns every command seen so far, space-joined.
func (e *Executor) Commands() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.calls))
	for i, c := range e.calls {
		out[i] = strings.Join(c, " ")
	}
	return out
}
