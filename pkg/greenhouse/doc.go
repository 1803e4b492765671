// Package greenhouse holds the canopy domain model and entity services:
// users, locations, greenhouses, devices and environment records.
//
// Every service method takes the acting principal and enforces the same
// ordering: resolve the target (and any newly referenced parent) first,
// consult the policy evaluator, then mutate. A failed existence check is a
// not-found error; a failed policy check is the uniform permission error;
// neither leaves rows modified.
package greenhouse
