// Package workspace owns the output directory of a session.
//
// A generated directory (no --output given) lives under the system temp dir
// and is removed by Cleanup. A caller-supplied directory is created if
// missing and always left in place.
package workspace
