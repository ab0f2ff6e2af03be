package models

// ComputedAssets is the result of the in-page extraction script. It carries
// what can only be observed after script execution and style computation.
type ComputedAssets struct {
	// Backgrounds are computed background-image URLs in document order.
	Backgrounds []string `json:"backgrounds"`
	// Fonts are @font-face src URLs from every accessible stylesheet.
	Fonts []string `json:"fonts"`
	// SkippedStylesheets counts stylesheets whose rules could not be read.
	SkippedStylesheets int `json:"skipped_stylesheets"`
	// ElementsScanned is the number of elements whose computed style was read.
	ElementsScanned int `json:"elements_scanned"`
	// Truncated is set when the element limit was reached.
	Truncated bool `json:"truncated"`
	// Rejected counts values dropped while decoding the script result.
	Rejected int `json:"-"`
}

// DocumentSnapshot is a rendered document as handed to the catalog builder.
type DocumentSnapshot struct {
	URL      string
	HTML     string
	Computed *ComputedAssets
}
