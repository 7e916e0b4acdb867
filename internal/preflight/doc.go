// Package preflight provides readiness checks for the filesystem paths and
// external binaries subsync depends on.
//
// These checks run in two contexts:
//   - The sync and batch commands call RunAll before starting work so a run
//     does not fail halfway on an unwritable work directory.
//   - The CLI "subsync status" command renders every check, including
//     CheckSystemDeps, as a health table.
package preflight
