package source

// FileID identifies the file a span points into.
type FileID uint32 // просто ID источника

// NoFileID marks spans that were not produced from a file (tests, synthesized nodes).
const NoFileID FileID = 0
