package output

// Compile-time interface conformance checks.
var (
	// DeltaReportWriter implementations
	_ DeltaReportWriter = (*ConsoleDeltaWriter)(nil)
	_ DeltaReportWriter = (*JSONDeltaWriter)(nil)
	_ DeltaReportWriter = (*CSVDeltaWriter)(nil)
	_ DeltaReportWriter = (*MarkdownDeltaWriter)(nil)
	_ DeltaReportWriter = (*CIDeltaWriter)(nil)

	// SearchReportWriter implementations
	_ SearchReportWriter = (*ConsoleSearchWriter)(nil)
	_ SearchReportWriter = (*JSONSearchWriter)(nil)
	_ SearchReportWriter = (*CSVSearchWriter)(nil)

	// MRReportWriter implementations
	_ MRReportWriter = (*ConsoleMRWriter)(nil)
	_ MRReportWriter = (*JSONMRWriter)(nil)
	_ MRReportWriter = (*CSVMRWriter)(nil)
)

// DeltaReportWriter writes delta comparison reports.
type DeltaReportWriter interface {
	Write(report *DeltaReport, options Options) error
}

// SearchReportWriter writes commit search reports.
type SearchReportWriter interface {
	Write(report *SearchReport, options Options) error
}

// MRReportWriter writes merge request tracking reports.
type MRReportWriter interface {
	Write(report *MRReport, options Options) error
}

// NewDeltaReportWriter creates a delta report writer for the specified format.
func NewDeltaReportWriter(format Format) DeltaReportWriter {
	switch format {
	case FormatJSON:
		return &JSONDeltaWriter{}
	case FormatCSV:
		return &CSVDeltaWriter{}
	case FormatMarkdown:
		return &MarkdownDeltaWriter{}
	case FormatCI:
		return &CIDeltaWriter{}
	default:
		return &ConsoleDeltaWriter{}
	}
}

// NewSearchReportWriter creates a search report writer for the specified format.
func NewSearchReportWriter(format Format) SearchReportWriter {
	switch format {
	case FormatJSON:
		return &JSONSearchWriter{}
	case FormatCSV:
		return &CSVSearchWriter{}
	default:
		return &ConsoleSearchWriter{}
	}
}

// NewMRReportWriter creates a merge request report writer for the specified format.
func NewMRReportWriter(format Format) MRReportWriter {
	switch format {
	case FormatJSON:
		return &JSONMRWriter{}
	case FormatCSV:
		return &CSVMRWriter{}
	default:
		return &ConsoleMRWriter{}
	}
}
