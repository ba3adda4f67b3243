package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestEncodeTS_Shape(t *testing.T) {
	b, err := EncodeTS("bondReports", []row{{Name: "<a&b>", Value: 1.5}})
	require.NoError(t, err)
	s := string(b)
	assert.True(t, strings.HasPrefix(s, "export const bondReports = [\n  {"))
	assert.True(t, strings.HasSuffix(s, "];\n\nexport default bondReports;\n"))
	assert.Contains(t, s, `"<a&b>"`)
}

func TestEncodeTS_Header(t *testing.T) {
	b, err := EncodeTS("LOF_DATA", map[string]int{"n": 1}, "LOF 数据", "生成时间: 2024-01-02")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "// LOF 数据\n// 生成时间: 2024-01-02\n\nexport const LOF_DATA = {"))
}

func TestTSRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.ts")
	in := []row{{Name: "中证红利", Value: 5.2}, {Name: "国债", Value: 1.7}}
	require.NoError(t, WriteTS(path, "dividendData", in))

	var out []row
	require.NoError(t, ReadTS(path, &out))
	assert.Equal(t, in, out)
}

func TestDecodeTS_ToleratesForeignWrapping(t *testing.T) {
	src := "// header with [brackets]\nexport const x = [{\"name\":\"a\",\"value\":1}];\nexport default x;\n"
	var out []row
	require.NoError(t, DecodeTS([]byte(src), &out))
	assert.Equal(t, []row{{Name: "a", Value: 1}}, out)
}

func TestDecodeTS_Errors(t *testing.T) {
	var out []row
	assert.Error(t, DecodeTS([]byte("const x = 1"), &out))
	assert.Error(t, DecodeTS([]byte("export const x = 1;"), &out))
	assert.Error(t, DecodeTS([]byte("export const x = [1,"), &out))

	err := ReadTS(filepath.Join(t.TempDir(), "missing.ts"), &out)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
