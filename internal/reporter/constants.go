package reporter

const (
	// ReportFileName is written at the root of the output tree.
	ReportFileName = "extraction_report.json"
	// IndexFileName is the rewritten document.
	IndexFileName = "index.html"
	// PreviewFileName holds the optional full-page screenshot.
	PreviewFileName = "preview.png"

	// ArchiveExtension is appended to the output directory for the zip archive.
	ArchiveExtension = ".zip"

	FilePermissions = 0644
)
