/*
Package component rewrites component description documents so that a loader
skips hash validation for writable memory regions.

A component description lists the memory regions a component provides:

	<component name="sl">
	  <provides>
	    <memory logical="text" writable="false" ...>
	      <hash value="16#a1...#"/>
	    </memory>
	    <memory logical="data" writable="true" ...>
	      <hash value="16#b2...#"/>
	    </memory>
	  </provides>
	</component>

The contents of a writable region change every time the component runs, so
a hash recorded at build time can never match after the first execution.
ClearWritableHashes sets the value of every hash below a memory element whose
writable attribute is exactly "true" to the sentinel "none". Nothing else in
the document changes. A missing writable attribute counts as not writable.

# Basic Usage

	report, err := component.ClearWritableHashes("sl.xml", "sl-adjusted.xml", nil)
	if err != nil {
	    log.Fatal(err)
	}
	if !report.Written {
	    fmt.Println("No writable memory region found")
	}

Reporting each cleared region:

	opts := &component.Options{
	    OnClear: func(region string) {
	        fmt.Printf("Clearing hash for writable memory region '%s'\n", region)
	    },
	}
	report, err := component.ClearWritableHashes("sl.xml", "out.xml", opts)

# Output

When at least one hash is cleared the whole document is re-serialized with
two-space indentation and written atomically: the output path holds either
its previous contents or the complete new document. When nothing matches no
output is written and Report.Written is false.

# Errors

Failures wrap one of ErrInputNotFound, ErrRead, ErrParse or ErrWrite and can be
told apart with errors.Is.
*/
package component
