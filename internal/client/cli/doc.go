// Package cli contains the end-to-end run orchestration of the panoclone
// command-line tool: cache management, remote folder mirroring, file
// enumeration and the scheduled uploads, plus terminal input helpers.
package cli
