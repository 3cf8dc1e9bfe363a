package progress

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

type jobRef struct {
	JobID string `json:"job_id"`
}

// WriteSSE writes e as one server-sent event and flushes w when it is a
// *bufio.Writer.
func WriteSSE(w io.Writer, e Event) error {
	var (
		data []byte
		err  error
	)
	if e.Snapshot != nil {
		data, err = json.Marshal(e.Snapshot)
	} else {
		data, err = json.Marshal(jobRef{JobID: e.JobID})
	}
	if err != nil {
		return fmt.Errorf("encode %s event: %w", e.Type, err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data); err != nil {
		return err
	}
	if bw, ok := w.(*bufio.Writer); ok {
		return bw.Flush()
	}
	return nil
}

// WriteKeepAlive writes an SSE comment line.
func WriteKeepAlive(w *bufio.Writer) error {
	if _, err := w.WriteString(": keepalive\n\n"); err != nil {
		return err
	}
	return w.Flush()
}
