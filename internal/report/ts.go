// Package report renders job results for the static frontends and for
// humans: TS data modules, Markdown, HTML and PNG charts.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xllucky21/xllucky/pkg/util"
)

// EncodeTS renders v as an exported TS constant. Header lines become
// leading // comments.
func EncodeTS(name string, v interface{}, header ...string) ([]byte, error) {
	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}

	var out bytes.Buffer
	for _, h := range header {
		fmt.Fprintf(&out, "// %s\n", h)
	}
	if len(header) > 0 {
		out.WriteByte('\n')
	}
	fmt.Fprintf(&out, "export const %s = %s;\n\nexport default %s;\n",
		name, strings.TrimRight(body.String(), "\n"), name)
	return out.Bytes(), nil
}

// WriteTS encodes v and replaces path atomically.
func WriteTS(path, name string, v interface{}, header ...string) error {
	b, err := EncodeTS(name, v, header...)
	if err != nil {
		return err
	}
	if err := util.WriteFileAtomic(path, b); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// DecodeTS extracts the JSON literal assigned by `export const` and
// unmarshals it into v.
func DecodeTS(src []byte, v interface{}) error {
	s := string(src)
	i := strings.Index(s, "export const")
	if i < 0 {
		return fmt.Errorf("decode ts: no export const")
	}
	eq := strings.IndexByte(s[i:], '=')
	if eq < 0 {
		return fmt.Errorf("decode ts: no assignment")
	}
	rest := s[i+eq+1:]
	start := strings.IndexAny(rest, "[{")
	if start < 0 {
		return fmt.Errorf("decode ts: no literal")
	}
	closer := byte(']')
	if rest[start] == '{' {
		closer = '}'
	}
	end := strings.LastIndexByte(rest, closer)
	if end < start {
		return fmt.Errorf("decode ts: unterminated literal")
	}
	if err := json.Unmarshal([]byte(rest[start:end+1]), v); err != nil {
		return fmt.Errorf("decode ts: %w", err)
	}
	return nil
}

// ReadTS reads a file written by WriteTS. A missing file returns an error
// satisfying errors.Is(err, os.ErrNotExist).
func ReadTS(path string, v interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return DecodeTS(b, v)
}
