package loader

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	resourceTimeoutCode  = "RESOURCE_TIMEOUT"
	resourceLoadCode     = "RESOURCE_LOAD_FAILED"
	catalogMismatchCode  = "CATALOG_MISCONFIGURED"
	readinessTimeoutCode = "HOST_READINESS_TIMEOUT"
	startupFailedCode    = "ENHANCEMENT_STARTUP_FAILED"
)

func newResourceTimeoutError(err error, module, url string) error {
	return goerrors.Wrap(err, goerrors.CategoryExternal,
		fmt.Sprintf("resource %s timed out for module %s", url, module)).
		WithTextCode(resourceTimeoutCode)
}

func newResourceLoadError(err error, module, url string) error {
	return goerrors.Wrap(err, goerrors.CategoryExternal,
		fmt.Sprintf("resource %s failed for module %s", url, module)).
		WithTextCode(resourceLoadCode)
}

func newCatalogMisconfiguration(err error, module string) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation,
		fmt.Sprintf("module %s is not in the catalog", module)).
		WithTextCode(catalogMismatchCode)
}

func newStartupError(err error, stage RunState) error {
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal,
		fmt.Sprintf("enhancement startup failed during %s", stage)).
		WithTextCode(startupFailedCode)
}
