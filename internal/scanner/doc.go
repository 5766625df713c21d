// Package scanner turns command-line paths into a work plan.
//
// A plan lists the videos that still need a sheet, the videos that already
// have one, and orphaned sheets whose video is gone. The sheet file itself
// is the completion marker; there is no other state.
package scanner
