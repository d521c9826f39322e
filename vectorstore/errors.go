package vectorstore

import "errors"

var (
	// ErrRequestFailed wraps any non-2xx response from the Pinecone API.
	ErrRequestFailed = errors.New("vectorstore: pinecone request failed")
	// ErrIndexNotReady is returned when a created index does not report
	// ready within the wait window.
	ErrIndexNotReady = errors.New("vectorstore: index did not become ready")
	// ErrEmbeddingMismatch is returned when an embedder yields a different
	// number of vectors than texts it was given.
	ErrEmbeddingMismatch = errors.New("vectorstore: embedding count does not match text count")
)
