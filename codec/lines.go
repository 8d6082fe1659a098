package codec

import "io"

type appender interface {
	Append(dst []byte, v any) ([]byte, error)
}

// LineWriter writes one encoded value per line, the JSON Lines framing the
// command line tool uses for search results and index statistics.
// It is not safe for concurrent use.
type LineWriter struct {
	w   io.Writer
	c   Codec
	buf []byte
}

// NewLineWriter returns a writer encoding with c, or Default when c is nil.
func NewLineWriter(w io.Writer, c Codec) *LineWriter {
	if c == nil {
		c = Default
	}
	return &LineWriter{w: w, c: c}
}

// Write encodes v followed by a newline.
func (lw *LineWriter) Write(v any) error {
	var err error
	if a, ok := lw.c.(appender); ok {
		lw.buf, err = a.Append(lw.buf[:0], v)
	} else {
		var b []byte
		b, err = lw.c.Marshal(v)
		lw.buf = append(lw.buf[:0], b...)
	}
	if err != nil {
		return err
	}
	lw.buf = append(lw.buf, '\n')
	_, err = lw.w.Write(lw.buf)
	return err
}
