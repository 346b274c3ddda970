// Package jrepo is a data-repository interception layer: every
// repository operation runs through an ordered interceptor chain split
// around the backing storage call, with lifecycle hooks dispatched on
// both sides.
package jrepo

import (
	"github.com/shrek82/jrepo/core"
	"github.com/shrek82/jrepo/query"
	"github.com/shrek82/jrepo/validator"
)

// Re-export core types and functions
type Repo = core.Repo
type Option = core.Option
type Adapter = core.Adapter
type Operation = core.Operation
type Changeset = core.Changeset
type Interceptor = core.Interceptor
type InterceptorFunc = core.InterceptorFunc
type MiddlewareFunc = core.MiddlewareFunc
type Resolution = core.Resolution
type Phase = core.Phase
type Delta = core.Delta
type DeltaKind = core.DeltaKind

var (
	New            = core.New
	WithName       = core.WithName
	WithMiddleware = core.WithMiddleware
	WithLogger     = core.WithLogger
	Change         = core.Change
	Classify       = core.Classify
	Partition      = core.Partition

	Sentinel       = core.Sentinel
	LifecycleHooks = core.LifecycleHooks

	EnableHooks       = core.EnableHooks
	DisableHooks      = core.DisableHooks
	EnableHooksLocal  = core.EnableHooksLocal
	DisableHooksLocal = core.DisableHooksLocal
	HooksEnabled      = core.HooksEnabled
	InHook            = core.InHook
	HooksRefCount     = core.HooksRefCount

	ErrNotFound          = core.ErrNotFound
	ErrInvalidResource   = core.ErrInvalidResource
	ErrInvalidChangeset  = core.ErrInvalidChangeset
	ErrMissingPrimaryKey = core.ErrMissingPrimaryKey
	ErrNoAdapter         = core.ErrNoAdapter
)

// DefaultMiddleware is the chain installed on repos built without an
// explicit one.
var DefaultMiddleware core.MiddlewareFunc = core.DefaultMiddleware

// Re-export query types and functions
type Query = query.Query
type PreloadSpec = query.PreloadSpec

var (
	NewQuery = query.New
	Preload  = query.Preload
)

// Re-export validator types and functions
type ValidationErrors = validator.ValidationErrors
type Rules = validator.Rules
type Rule = validator.Rule

var (
	// Rules
	Required = validator.Required
	Email    = validator.Email
	Numeric  = validator.Numeric

	// Rule creators
	MinLen   = validator.MinLen
	MaxLen   = validator.MaxLen
	Range    = validator.Range
	In       = validator.In
	Regexp   = validator.Regexp
	Contains = validator.Contains
)
