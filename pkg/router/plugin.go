package router

// Plugin extends a router, typically by registering listeners.
type Plugin interface {
	Attach(r *Router)
}

// PluginFunc adapts a function to Plugin.
type PluginFunc func(r *Router)

// Attach calls f.
func (f PluginFunc) Attach(r *Router) {
	f(r)
}

// Use attaches plugins in order.
func (r *Router) Use(plugins ...Plugin) {
	for _, p := range plugins {
		p.Attach(r)
	}
}
