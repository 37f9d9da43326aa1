package filetransfer

import "io"

// ByteSource is the file-I/O collaborator the sender driver consumes: a
// readable, closable byte stream. Any io.ReadCloser, in particular
// *os.File, satisfies it.
type ByteSource interface {
	io.Reader
	io.Closer
}

// ByteSink is the file-I/O collaborator the receiver driver consumes: a
// writable, closable byte stream. Any io.WriteCloser, in particular
// *os.File, satisfies it.
type ByteSink interface {
	io.Writer
	io.Closer
}
