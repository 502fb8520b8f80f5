// Package inventory loads a fabric inventory from HCL files and resolves the
// effective per-host variable set for every buildable device.
package inventory
