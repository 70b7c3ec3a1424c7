// Package ircdebug contains helpers for inspecting IRC connection traffic.
package ircdebug

import (
	"io"
)

// WriteTo returns an io.ReadWriteCloser that passes all reads and writes
// through to rwc while copying them to w, each direction marked with its
// prefix. Wrap the connection returned by a DialFn with it to log a session's
// raw traffic to os.Stderr or a file.
// todo: interleaved reads and writes can mix in w because nothing serializes them
func WriteTo(w io.Writer, rwc io.ReadWriteCloser, outPrefix string, inPrefix string) io.ReadWriteCloser {
	return &debugConn{
		ReadWriteCloser: rwc,
		r:               io.TeeReader(rwc, &writePrefixer{w: w, prefix: inPrefix}),
		w:               io.MultiWriter(rwc, &writePrefixer{w: w, prefix: outPrefix}),
	}
}

type debugConn struct {
	io.ReadWriteCloser
	r io.Reader
	w io.Writer
}

func (dc *debugConn) Read(p []byte) (int, error) {
	return dc.r.Read(p)
}

func (dc *debugConn) Write(p []byte) (int, error) {
	return dc.w.Write(p)
}

type writePrefixer struct {
	w      io.Writer
	prefix string
}

func (wp *writePrefixer) Write(p []byte) (n int, err error) {
	n, err = wp.w.Write(append([]byte(wp.prefix), p...))

	// MultiWriter errors when its writers report different byte counts, so
	// report only the length of p as written.
	return n - len(wp.prefix), err
}
