package testutil

// Fixture paths relative to the repository root.
// Use these constants instead of hardcoding testdata paths in test files.
const (
	// SLSpec is a component spec with two writable regions (data, bss)
	// carrying hashes, one read-only region and a writable region without a hash.
	SLSpec = "pkg/component/testdata/sl.xml"

	// SLSpecGolden is SLSpec after clearing its writable hashes.
	SLSpecGolden = "pkg/component/testdata/sl.golden.xml"

	// ReadOnlySpec has no writable memory region.
	ReadOnlySpec = "pkg/component/testdata/readonly.xml"

	// MalformedSpec is not well-formed XML.
	MalformedSpec = "pkg/component/testdata/malformed.xml"
)
