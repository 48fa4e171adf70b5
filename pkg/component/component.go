package component

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/joshuapare/specadjust/internal/atomicfile"
	"github.com/joshuapare/specadjust/internal/xmldoc"
	"github.com/joshuapare/specadjust/internal/xmlpath"
)

const (
	// NoHash is the hash value that tells the loader to skip validation.
	NoHash = "none"

	// WritableHashQuery selects the hash elements of writable memory regions.
	WritableHashQuery = `/component/provides/memory[@writable="true"]/hash`

	hashValueAttr  = "value"
	regionNameAttr = "logical"
	outputPerm     = 0o644
)

var writableHashes = xmlpath.MustCompile(WritableHashQuery)

// Options controls ClearWritableHashes behavior. A nil *Options uses defaults.
type Options struct {
	// OnClear is called once per cleared hash, in document order, with the
	// logical name of the enclosing memory region.
	OnClear func(region string)

	// OnWrite is called with the output path right before it is written.
	// It is not called when nothing matched.
	OnWrite func(path string)

	// Logger receives debug diagnostics. Nil disables logging.
	Logger *zap.Logger
}

func (o *Options) logger() *zap.Logger {
	if o == nil || o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Report describes the outcome of a transformation.
type Report struct {
	// Regions lists the logical name of the region enclosing each cleared
	// hash, in document order.
	Regions []string
	// Cleared is the number of hash elements set to NoHash.
	Cleared int
	// OutputPath is the file written; empty when Written is false.
	OutputPath string
	// Written reports whether an output document was produced.
	Written bool
}

// ClearWritableHashes reads the component description at inputPath, sets the
// hash of every writable memory region to NoHash and writes the result to
// outputPath.
//
// If no writable memory region carries a hash, nothing is written and the
// returned Report has Written == false. That case is not an error.
//
// Example:
//
//	report, err := component.ClearWritableHashes("sl.xml", "sl-adjusted.xml", nil)
func ClearWritableHashes(inputPath, outputPath string, opts *Options) (*Report, error) {
	if !fileExists(inputPath) {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, inputPath)
	}
	log := opts.logger().With(zap.String("input", inputPath))

	doc, err := xmldoc.ParseFile(inputPath)
	if err != nil {
		if errors.Is(err, xmldoc.ErrSyntax) {
			return nil, fmt.Errorf("%w: %s: %w", ErrParse, inputPath, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	log.Debug("parsed component description", zap.String("root", doc.Root.Name.String()))

	report := clearDocument(doc, opts, log)
	if report.Cleared == 0 {
		log.Debug("no writable memory region", zap.Stringer("query", writableHashes))
		return report, nil
	}

	if opts != nil && opts.OnWrite != nil {
		opts.OnWrite(outputPath)
	}
	if err := atomicfile.WriteFile(outputPath, doc.Bytes(), outputPerm); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	log.Debug("wrote adjusted component description",
		zap.String("output", outputPath),
		zap.Int("cleared", report.Cleared))

	report.OutputPath = outputPath
	report.Written = true
	return report, nil
}

// ClearWritableHashesBytes applies the same rule to an in-memory document.
// The returned bytes are nil when nothing matched.
func ClearWritableHashesBytes(data []byte, opts *Options) ([]byte, *Report, error) {
	doc, err := xmldoc.ParseBytes(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	report := clearDocument(doc, opts, opts.logger())
	if report.Cleared == 0 {
		return nil, report, nil
	}
	return doc.Bytes(), report, nil
}

// clearDocument rewrites every matching hash in place.
func clearDocument(doc *xmldoc.Document, opts *Options, log *zap.Logger) *Report {
	report := &Report{}
	for _, hash := range writableHashes.Select(doc) {
		region := hash.Parent().AttrValue(regionNameAttr)
		log.Debug("clearing hash",
			zap.String("region", region),
			zap.String("previous", hash.AttrValue(hashValueAttr)))

		if opts != nil && opts.OnClear != nil {
			opts.OnClear(region)
		}
		hash.SetAttr(hashValueAttr, NoHash)
		report.Regions = append(report.Regions, region)
		report.Cleared++
	}
	return report
}

// fileExists reports whether path names an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
