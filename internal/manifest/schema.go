package manifest

// File is the decoded form of a manifest
type File struct {
	HeaderHandlers []HeaderHandlersBlock `hcl:"header_handlers,block"`
	Signals        []SignalBlock         `hcl:"signal,block"`
}

// HeaderHandlersBlock names a set of header event bindings that signals share
type HeaderHandlersBlock struct {
	Name   string            `hcl:"name,label"`
	Events map[string]string `hcl:"events"`
}

// SignalBlock declares one signal. Every attribute holds a capability
// reference such as "formatters.money".
type SignalBlock struct {
	Name            string  `hcl:"name,label"`
	Format          *string `hcl:"format,optional"`
	CalculateWeight *string `hcl:"calculate_weight,optional"`
	HeaderHandlers  *string `hcl:"header_handlers,optional"`
}
