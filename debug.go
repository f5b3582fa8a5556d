//go:build sixopdebug

package sixop

// DebugAsserts turns defects such as unknown parameter ids into panics.
const DebugAsserts = true
