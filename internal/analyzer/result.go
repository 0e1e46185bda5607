package analyzer

// SectionFinding reports whether one template section was detected in the text.
// Field names match the wire format consumed by the frontend.
type SectionFinding struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Patterns []string `json:"patterns"`
	Found    bool     `json:"found"`
	Optional bool     `json:"optional,omitempty"`
}

// StructureDetails carries the raw counts behind the score.
type StructureDetails struct {
	TotalSectionsChecked  int    `json:"totalSectionsChecked"`
	RequiredSectionsFound int    `json:"requiredSectionsFound"`
	TotalRequiredSections int    `json:"totalRequiredSections"`
	ContentLength         int    `json:"contentLength"`
	DetectionConfidence   string `json:"detectionConfidence"`
}

// AnalysisResult is the complete outcome of a structure analysis.
// It is built once per Analyze call and owned by the caller afterwards.
type AnalysisResult struct {
	FileName         string           `json:"fileName"`
	FileType         string           `json:"fileType"`
	WorkType         string           `json:"workType"`
	DetectedType     WorkType         `json:"detectedType"`
	IsValid          bool             `json:"isValid"`
	Score            int              `json:"score"`
	SectionsFound    []SectionFinding `json:"sectionsFound"`
	SectionsMissing  []string         `json:"sectionsMissing"`
	Errors           []string         `json:"errors"`
	Warnings         []string         `json:"warnings"`
	Recommendations  []string         `json:"recommendations"`
	StructureDetails StructureDetails `json:"structureDetails"`

	// Status is only set on placeholder results produced outside the
	// engine (empty file, unsupported format, unreadable image).
	Status string `json:"status,omitempty"`

	// FileDetails is only set on combined screenshot analyses.
	FileDetails *ScreenshotDetails `json:"fileDetails,omitempty"`
}

// ScreenshotDetails summarizes how a combined screenshot analysis was
// assembled from individual images.
type ScreenshotDetails struct {
	TotalScreenshots   int      `json:"totalScreenshots"`
	ValidScreenshots   int      `json:"validScreenshots"`
	InvalidScreenshots int      `json:"invalidScreenshots"`
	ValidFiles         []string `json:"validFiles"`
	InvalidFiles       []string `json:"invalidFiles"`
	CombinedTextLength int      `json:"combinedTextLength"`
}
