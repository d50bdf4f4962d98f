package interfaces

// -----------------------------------------------------------------------------
// INetworkManager abstracts outbound HTTP for the data sources.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// Get performs a single GET request with query parameters and returns the
	// raw body. No automatic retries: a failure surfaces to the caller.
	Get(url string, params map[string]string) ([]byte, error)
}
