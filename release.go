//go:build !sixopdebug

package sixop

// DebugAsserts turns defects such as unknown parameter ids into panics. Build
// with the sixopdebug tag to enable.
const DebugAsserts = false
