// Package preflight provides readiness checks for the external whisper
// command and the filesystem paths audioscore writes to.
//
// These checks run in two contexts:
//   - The CLI "audioscore doctor" command prints every result.
//   - "audioscore serve" runs them at startup and logs failures as warnings,
//     so a missing whisper install shows up before the first upload fails.
package preflight
