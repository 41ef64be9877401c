package container

import (
	"errors"
	"fmt"
	"strings"
)

// ── Sentinel errors ───────────────────────────────────────────────────────────

// Sentinels are matched with errors.Is; the typed errors below wrap them.
var (
	ErrEmptyAbstract         = errors.New("abstract must not be empty")
	ErrUnknownType           = errors.New("unknown type")
	ErrUnresolvableParameter = errors.New("unresolvable parameter")
	ErrUnknownParameter      = errors.New("unknown parameter")
	ErrTypeMismatch          = errors.New("type mismatch")
	ErrInvalidConstructor    = errors.New("invalid constructor")
	ErrCircularDependency    = errors.New("circular dependency")
	ErrMaxDepthExceeded      = errors.New("maximum resolution depth exceeded")
)

// ── Typed errors ──────────────────────────────────────────────────────────────

// ResolutionError reports which abstract failed to resolve and why.
// Constructor and factory failures arrive here unchanged in Err.
type ResolutionError struct {
	Abstract string
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("container: resolving [%s]: %v", e.Abstract, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// UnresolvableParameterError is returned when a constructor parameter has no
// override, no default and no type the container can resolve.
type UnresolvableParameterError struct {
	Type      string
	Param     string
	ParamType string
}

func (e *UnresolvableParameterError) Error() string {
	return fmt.Sprintf("container: cannot resolve parameter [%s] (%s) of [%s]", e.Param, e.ParamType, e.Type)
}

// Is reports a match against ErrUnresolvableParameter.
func (e *UnresolvableParameterError) Is(target error) bool {
	return target == ErrUnresolvableParameter
}

// CycleError carries the chain of abstracts that led back to itself.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return "container: circular dependency: " + strings.Join(e.Chain, " --> ")
}

// Is reports a match against ErrCircularDependency.
func (e *CycleError) Is(target error) bool {
	return target == ErrCircularDependency
}

// ── helpers ───────────────────────────────────────────────────────────────────

// wrapFailure attaches abstract to err unless err is already a container error
// raised deeper in the resolution chain.
func wrapFailure(abstract string, err error) error {
	var (
		re *ResolutionError
		ue *UnresolvableParameterError
		ce *CycleError
	)
	if errors.As(err, &re) || errors.As(err, &ue) || errors.As(err, &ce) {
		return err
	}
	return &ResolutionError{Abstract: abstract, Err: err}
}
