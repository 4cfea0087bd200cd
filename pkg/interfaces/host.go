package interfaces

import "context"

// ResourceKind identifies how a catalog resource should be applied to the host.
type ResourceKind string

const (
	// ResourceScript marks an executable resource (e.g. a script bundle).
	ResourceScript ResourceKind = "script"
	// ResourceStyle marks a presentation resource (e.g. a stylesheet).
	ResourceStyle ResourceKind = "style"
)

// Resource is a single locator inside an enhancement module. Resources are
// applied in the order they are declared.
type Resource struct {
	Kind ResourceKind `json:"kind"`
	URL  string       `json:"url"`
}

// Host models the page or application being enhanced. Implementations are
// owned by the hosting application; the runtime only consumes the signals.
type Host interface {
	// WaitStructure blocks until the host reached structural readiness or the
	// context is cancelled.
	WaitStructure(ctx context.Context) error

	// ContentReady reports whether the application root carries real content.
	// The loader polls this probe with a bounded retry budget.
	ContentReady(ctx context.Context) (bool, error)

	// Has reports whether a resource is already present in the host, by
	// locator identity. Present resources are treated as satisfied.
	Has(url string) bool
}

// Fetcher loads one resource of a module into the host. Implementations must
// honour the context deadline; the loader applies a fixed per-resource
// timeout around every call.
type Fetcher interface {
	Fetch(ctx context.Context, module string, res Resource) error
}
