package router

import (
	"fmt"
	"strings"
)

// Listener observes a state change.
type Listener func(to, from *State)

// ErrorListener observes a failed transition.
type ErrorListener func(to, from *State, err error)

// ListenerID identifies a registered listener for removal.
type ListenerID uint64

// Listener keys. Route and node listeners append the route name.
const (
	keyGlobal = "*"
	keyRoute  = "="
	keyNode   = "^"
	keyStart  = "$start"
	keyCancel = "$cancel"
	keyError  = "$error"
)

type listener struct {
	id    ListenerID
	fn    Listener
	errFn ErrorListener
}

// addListener registers l under key. Callers hold r.mu.
func (r *Router) addListener(key string, l listener, replace bool) ListenerID {
	if name := key[1:]; name != "" && !strings.HasPrefix(key, "$") {
		if _, ok := r.tree.SegmentsByName(name); !ok {
			r.opts.Logger.Warn("no route found for listener, it might never be called", "route", name)
		}
	}

	r.nextID++
	l.id = r.nextID
	if replace {
		r.listeners[key] = []listener{l}
	} else {
		r.listeners[key] = append(r.listeners[key], l)
	}
	return l.id
}

func (r *Router) removeListener(key string, id ListenerID) {
	ls := r.listeners[key]
	for i, l := range ls {
		if l.id == id {
			r.listeners[key] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// snapshot copies the listeners registered under keys, in order. Callers hold r.mu.
func (r *Router) snapshot(keys ...string) []listener {
	var out []listener
	for _, key := range keys {
		out = append(out, r.listeners[key]...)
	}
	return out
}

// invoke calls listeners outside the lock. A panicking listener is logged and does
// not stop the others.
func (r *Router) invoke(ls []listener, to, from *State, err error) {
	for _, l := range ls {
		r.call(l, to, from, err)
	}
}

func (r *Router) call(l listener, to, from *State, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger().Error("listener panicked", "to", nameOf(to), "error", fmt.Sprint(p))
		}
	}()
	if l.errFn != nil {
		l.errFn(to, from, err)
		return
	}
	l.fn(to, from)
}

// AddListener registers a listener for every successful transition.
func (r *Router) AddListener(fn Listener) ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addListener(keyGlobal, listener{fn: fn}, false)
}

// RemoveListener removes a listener added with AddListener.
func (r *Router) RemoveListener(id ListenerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeListener(keyGlobal, id)
}

// AddRouteListener registers a listener for successful transitions to the named
// route.
func (r *Router) AddRouteListener(name string, fn Listener) ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addListener(keyRoute+name, listener{fn: fn}, false)
}

// RemoveRouteListener removes a listener added with AddRouteListener.
func (r *Router) RemoveRouteListener(name string, id ListenerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeListener(keyRoute+name, id)
}

// AddNodeListener sets the listener run inside transitions whose intersection is
// the named node. It replaces any listener already set for that node. The empty
// name designates the root.
func (r *Router) AddNodeListener(name string, fn Listener) ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addListener(keyNode+name, listener{fn: fn}, true)
}

// RemoveNodeListener removes listeners of the named node: the ones with the given
// IDs, or every one when no ID is given.
func (r *Router) RemoveNodeListener(name string, ids ...ListenerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(ids) == 0 {
		delete(r.listeners, keyNode+name)
		return
	}
	for _, id := range ids {
		r.removeListener(keyNode+name, id)
	}
}

// OnTransitionStart registers a listener called when a transition starts.
func (r *Router) OnTransitionStart(fn Listener) ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addListener(keyStart, listener{fn: fn}, false)
}

// OffTransitionStart removes a listener added with OnTransitionStart.
func (r *Router) OffTransitionStart(id ListenerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeListener(keyStart, id)
}

// OnTransitionCancel registers a listener called when a transition is cancelled.
func (r *Router) OnTransitionCancel(fn Listener) ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addListener(keyCancel, listener{fn: fn}, false)
}

// OffTransitionCancel removes a listener added with OnTransitionCancel.
func (r *Router) OffTransitionCancel(id ListenerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeListener(keyCancel, id)
}

// OnTransitionError registers a listener called when a transition fails for any
// reason other than cancellation.
func (r *Router) OnTransitionError(fn ErrorListener) ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addListener(keyError, listener{errFn: fn}, false)
}

// OffTransitionError removes a listener added with OnTransitionError.
func (r *Router) OffTransitionError(id ListenerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeListener(keyError, id)
}
