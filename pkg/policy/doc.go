// Package policy implements the access policy evaluator for canopy.
//
// Every entity operation asks the same question before touching storage:
// may this principal perform this action on this resource? The answer comes
// from Can, a pure function over the principal's flags and the resource's
// ownership data. Resources expose their ownership through two small
// interfaces: Owned (an exclusive owner) and Shared (an owner plus a set of
// authorized users with read access). Devices and environment records derive
// their ownership from their parent greenhouse; the ACLCache keeps that
// two-hop traversal O(1) for repeated checks.
//
// Evaluation order is fixed: superusers are always allowed, inactive or
// missing principals are always denied, then ownership and the shared-read
// exception are consulted. Existence checks happen before permission checks
// in the services, so a missing resource is reported as not found, never as
// a permission failure.
package policy
