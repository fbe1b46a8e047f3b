// Package handler translates external bulk-lookup requests into per-group
// lookup calls and assembles the external response shape.
//
// A request carries up to four independently keyed groups (internal keys,
// generic keys, render URLs, ad component render URLs). Each non-empty group
// is dispatched as one batched lookup; a failing group never aborts the
// others. Returned values get a best-effort structured decode: payloads that
// are valid JSON are embedded as-is, everything else is returned as an
// opaque JSON string.
//
// The handler also owns the hit/miss accounting per group and the creation
// of the per-request context that downstream calls attribute their cost to.
package handler
