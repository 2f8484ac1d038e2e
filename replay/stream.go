package replay

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// A YAMLStream appends records to a writer as single-item YAML list
// entries, so any prefix of the file parses as one list of records.
type YAMLStream struct {
	w io.Writer
}

// NewYAMLStream wraps an already-open writer. The stream does not
// close it.
func NewYAMLStream(w io.Writer) *YAMLStream {
	return &YAMLStream{w: w}
}

// A yamlFile is a YAMLStream that owns its file handle.
type yamlFile struct {
	YAMLStream
	f *os.File
}

// OpenYAMLFile opens (appending, creating if missing) a stream file.
func OpenYAMLFile(path string) (Sink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &yamlFile{YAMLStream: YAMLStream{w: f}, f: f}, nil
}

func (y *YAMLStream) Append(rec *Record) error {
	out, err := yaml.Marshal([]*Record{rec})
	if err != nil {
		return err
	}
	_, err = y.w.Write(out)
	return err
}

func (y *YAMLStream) Close() error { return nil }

func (y *yamlFile) Close() error { return y.f.Close() }

// ReadYAMLStream parses everything a stream has appended so far.
func ReadYAMLStream(r io.Reader) ([]Record, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var recs []Record
	if err := yaml.Unmarshal(raw, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}
