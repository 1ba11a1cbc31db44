package api

import (
	"encoding/json/v2"
	"net/http"

	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
)

// maxBodySize caps request bodies at 1 MiB. Catalog payloads are small.
const maxBodySize = 1 << 20

// decodeJSON reads and unmarshals the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	if err := json.UnmarshalRead(r.Body, dst); err != nil {
		return domainerrors.Validation("invalid request body")
	}
	return nil
}
