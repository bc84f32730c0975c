package cli

import (
	"io"
	"os"
)

// StdioName selects stdin or stdout instead of a file.
const StdioName = "-"

// lazyFile opens its file on the first write so that a failed command does
// not leave an empty output file behind.
type lazyFile struct {
	path string
	file *os.File
}

func (f *lazyFile) Write(p []byte) (int, error) {
	if f.file == nil {
		var err error
		f.file, err = os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return 0, err
		}
	}
	return f.file.Write(p)
}

func (f *lazyFile) Close() error {
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// openOutput returns stdout for "-" or an empty path, a lazily created file
// otherwise.
func openOutput(path string, stdout io.Writer) io.WriteCloser {
	if path == "" || path == StdioName {
		return nopWriteCloser{stdout}
	}
	return &lazyFile{path: path}
}

// openInput returns stdin for "-", the named file otherwise.
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == StdioName {
		return io.NopCloser(stdin), nil
	}
	return os.Open(path)
}
