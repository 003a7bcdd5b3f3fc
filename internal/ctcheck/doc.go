// Package ctcheck holds static checks over the packages that handle key
// material. It has no exported API; the checks live in its tests and load
// the checked packages with golang.org/x/tools/go/packages.
//
// Checked rules:
//
//   - byte slices and arrays are never compared with == or != and never
//     with bytes.Equal; crypto/subtle is used instead
//   - format strings passed to fmt and log never contain %x or %X, and
//     zerolog events never carry a Hex field
package ctcheck
