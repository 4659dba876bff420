// Package ir provides the value model and wire types shared by every coedit
// package.
//
// This package contains type definitions and codecs only. All other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Value is a sealed variant: Null, String, Number, Bool, Array, Object
//   - Object keys are always emitted in UTF-16 code unit order
//   - Values crossing a package boundary are deep-copied with Clone
//   - All JSON tags follow the external wire format (camel/lower case)
package ir
