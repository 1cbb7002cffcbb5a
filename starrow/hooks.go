// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package starrow

// CallHook provides observability callpoints around module builtin calls.
// Implementations must be safe for concurrent use when a Session's module is
// shared between Starlark threads.
type CallHook interface {
	OnCallStart(info CallInfo) HookToken
	OnCallEnd(token HookToken, info CallInfo, err error)
}

// HookToken is an opaque value returned by OnCallStart and passed back to
// OnCallEnd. Only meaningful to the CallHook that created it.
type HookToken interface{}

// CallInfo carries builtin metadata passed to hooks.
type CallInfo struct {
	Module  string // Starlark module name, "arrow"
	Builtin string // builtin name, e.g. "table"
}
