package driving

// IngestionService starts background ingestion runs.
type IngestionService interface {
	// Start begins ingesting the file at localPath for the given
	// document and returns immediately. All outcomes are observable
	// only through the document's job rows. The pipeline removes
	// localPath when the run ends, success or failure.
	Start(documentID, localPath string)
}
