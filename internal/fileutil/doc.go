// Package fileutil holds small filesystem helpers shared by the cutter,
// slicer, and providers.
package fileutil
