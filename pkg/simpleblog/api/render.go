package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/eslab/simple-blog/pkg/simpleblog"
)

// Media types the renderer negotiates between.
const (
	ContentTypeJSON       = "application/json"
	ContentTypeNDJSON     = "application/x-ndjson"
	ContentTypeStreamJSON = "application/stream+json"
)

// StreamMediaType returns the streaming media type the client asked for in
// the Accept header, or "" when the response should be a buffered array.
// Anything other than a known streaming type, including no Accept header at
// all, selects buffered rendering.
func StreamMediaType(r *http.Request) string {
	accept := r.Header.Get("Accept")
	for _, part := range strings.Split(accept, ",") {
		mediaType := strings.TrimSpace(part)
		if i := strings.IndexByte(mediaType, ';'); i >= 0 {
			mediaType = strings.TrimSpace(mediaType[:i])
		}
		switch mediaType {
		case ContentTypeNDJSON, ContentTypeStreamJSON:
			return mediaType
		}
	}
	return ""
}

// StreamJSON forwards a cursor element by element into the response, one JSON
// document per element with no enclosing array. Each element is flushed as
// soon as it is encoded, so the consumer's read rate gates the next pull from
// the store. When the client disconnects the cursor is closed without pulling
// further elements.
func StreamJSON[E any](w http.ResponseWriter, r *http.Request, mediaType string, cursor simpleblog.Cursor[E]) error {
	defer cursor.Close()

	w.Header().Set("Content-Type", mediaType)
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	ctx := r.Context()

	for cursor.Next() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := enc.Encode(cursor.Value()); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	return cursor.Err()
}
