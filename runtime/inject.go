package runtime

import "io"

// injectReader lets a running parser splice arbitrary text into its own
// lexical input stream - the runtime side of the %inject directive and the
// $INJECT(...) action hook (spec.md §1.3, §4.I, glossary "Injection").
// Reads are served from the pending queue, most-recently-injected first,
// before falling back to the original source.
type injectReader struct {
	src     io.Reader
	pending [][]byte
}

func newInjectReader(src io.Reader) *injectReader {
	return &injectReader{src: src}
}

func (r *injectReader) push(text string) {
	if text == "" {
		return
	}
	r.pending = append([][]byte{[]byte(text)}, r.pending...)
}

func (r *injectReader) Read(p []byte) (int, error) {
	for len(r.pending) > 0 {
		chunk := r.pending[0]
		if len(chunk) == 0 {
			r.pending = r.pending[1:]
			continue
		}
		n := copy(p, chunk)
		if n == len(chunk) {
			r.pending = r.pending[1:]
		} else {
			r.pending[0] = chunk[n:]
		}
		return n, nil
	}
	return r.src.Read(p)
}
