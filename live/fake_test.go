package live

import (
	"fmt"
	"sync"
)

// fakeTransport stands in for a running Live instance in unit tests. It
// records every call and serves canned query responses, keyed either by exact
// path+args or by path alone.
type fakeTransport struct {
	mu        sync.Mutex
	byCall    map[string][]interface{}
	byPath    map[string][]interface{}
	queries   []wireCall
	cmds      []wireCall
	failQuery error
	failCmd   error
}

type wireCall struct {
	path string
	args []interface{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		byCall: make(map[string][]interface{}),
		byPath: make(map[string][]interface{}),
	}
}

var _ Transport = (*fakeTransport)(nil)

func callKey(path string, args []interface{}) string {
	return fmt.Sprintf("%s %v", path, args)
}

// respond cans a response for any query to path.
func (f *fakeTransport) respond(path string, vals ...interface{}) {
	f.mu.Lock()
	f.byPath[path] = vals
	f.mu.Unlock()
}

// respondTo cans a response for a query to path with exactly these args.
func (f *fakeTransport) respondTo(path string, args []interface{}, vals ...interface{}) {
	f.mu.Lock()
	f.byCall[callKey(path, args)] = vals
	f.mu.Unlock()
}

func (f *fakeTransport) Query(path string, args ...interface{}) ([]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, wireCall{path: path, args: args})
	if f.failQuery != nil {
		return nil, f.failQuery
	}
	if resp, ok := f.byCall[callKey(path, args)]; ok {
		return resp, nil
	}
	if resp, ok := f.byPath[path]; ok {
		return resp, nil
	}
	return nil, &ConnectionError{Op: "query", Path: path, Err: ErrTimeout}
}

func (f *fakeTransport) Cmd(path string, args ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, wireCall{path: path, args: args})
	return f.failCmd
}

func (f *fakeTransport) lastCmd() wireCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.cmds) == 0 {
		return wireCall{}
	}
	return f.cmds[len(f.cmds)-1]
}

func (f *fakeTransport) lastQuery() wireCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return wireCall{}
	}
	return f.queries[len(f.queries)-1]
}

func (f *fakeTransport) cmdsTo(path string) []wireCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []wireCall
	for _, c := range f.cmds {
		if c.path == path {
			out = append(out, c)
		}
	}
	return out
}
