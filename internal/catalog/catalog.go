package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-enhance/pkg/interfaces"
)

// ErrCatalogInvalid indicates the catalog failed construction-time validation.
var ErrCatalogInvalid = errors.New("catalog: invalid catalog")

// ErrModuleUnknown indicates an identifier absent from the catalog.
var ErrModuleUnknown = errors.New("catalog: unknown module")

// Descriptor declares one enhancement module: a name, its ordered resource
// locators, and an implicit flag gate carrying the same name.
type Descriptor struct {
	Name      string                `json:"name"`
	Resources []interfaces.Resource `json:"resources"`
}

// FlagName returns the flag gating this module.
func (d Descriptor) FlagName() string {
	return d.Name
}

// Validate checks a single descriptor.
func (d Descriptor) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(d.Name) == "" {
		errs["name"] = validation.NewError("enhance.catalog.name_required", "module name is required")
	}
	if len(d.Resources) == 0 {
		errs["resources"] = validation.NewError("enhance.catalog.resources_required", "module requires at least one resource")
	}
	for i, res := range d.Resources {
		if err := validateResource(res); err != nil {
			errs[fmt.Sprintf("resources.%d", i)] = err
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Catalog is the fixed, ordered mapping of module identifier to resources.
// Order is the declared priority order; flags decide inclusion only, never
// reordering. The catalog is validated once at construction and read-only
// afterwards.
type Catalog struct {
	ordered []Descriptor
	byName  map[string]int
}

// New validates the descriptors and freezes them into a catalog. Duplicate or
// invalid entries fail fast instead of miscounting at load time.
func New(descriptors []Descriptor) (*Catalog, error) {
	byName := make(map[string]int, len(descriptors))
	ordered := make([]Descriptor, 0, len(descriptors))
	for i, descriptor := range descriptors {
		descriptor.Name = strings.TrimSpace(descriptor.Name)
		if err := descriptor.Validate(); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrCatalogInvalid, i, err)
		}
		if _, exists := byName[descriptor.Name]; exists {
			return nil, fmt.Errorf("%w: duplicate module %s", ErrCatalogInvalid, descriptor.Name)
		}
		byName[descriptor.Name] = len(ordered)
		ordered = append(ordered, cloneDescriptor(descriptor))
	}
	return &Catalog{ordered: ordered, byName: byName}, nil
}

// Modules returns the descriptors in declared priority order.
func (c *Catalog) Modules() []Descriptor {
	out := make([]Descriptor, len(c.ordered))
	for i, descriptor := range c.ordered {
		out[i] = cloneDescriptor(descriptor)
	}
	return out
}

// Names returns the module identifiers in declared order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.ordered))
	for i, descriptor := range c.ordered {
		out[i] = descriptor.Name
	}
	return out
}

// Lookup resolves a module by identifier.
func (c *Catalog) Lookup(name string) (Descriptor, error) {
	idx, ok := c.byName[strings.TrimSpace(name)]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrModuleUnknown, name)
	}
	return cloneDescriptor(c.ordered[idx]), nil
}

// Len reports the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.ordered)
}

func validateResource(res interfaces.Resource) error {
	switch res.Kind {
	case interfaces.ResourceScript, interfaces.ResourceStyle:
	default:
		return validation.NewError("enhance.catalog.resource_kind_invalid",
			fmt.Sprintf("unsupported resource kind %q", res.Kind))
	}
	trimmed := strings.TrimSpace(res.URL)
	if trimmed == "" {
		return validation.NewError("enhance.catalog.resource_url_required", "resource url is required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" && !strings.HasPrefix(trimmed, "/") {
		return validation.NewError("enhance.catalog.resource_url_invalid",
			fmt.Sprintf("resource url %q is not absolute or root-relative", res.URL))
	}
	return nil
}

func cloneDescriptor(descriptor Descriptor) Descriptor {
	cloned := descriptor
	if descriptor.Resources != nil {
		cloned.Resources = append([]interfaces.Resource(nil), descriptor.Resources...)
	}
	return cloned
}
