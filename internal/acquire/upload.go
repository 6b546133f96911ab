package acquire

import (
	"bytes"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sells-group/proviewer/internal/model"
)

var (
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// DecodeUpload returns data as text. A UTF-8 byte order mark is dropped and
// BOM-marked UTF-16 is transcoded; anything else must be valid UTF-8.
func DecodeUpload(data []byte) (string, error) {
	utf16 := bytes.HasPrefix(data, bomUTF16BE) || bytes.HasPrefix(data, bomUTF16LE)
	if !utf16 && !utf8.Valid(data) {
		return "", eris.New("file is not UTF-8 text")
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return "", eris.Wrap(err, "decode file")
	}
	return string(out), nil
}

// ReadUpload builds the record for an uploaded file. The format comes from
// the file name suffix; the content is not parsed.
func ReadUpload(name string, data []byte) (model.StructureRecord, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return model.StructureRecord{}, &ValidationError{Flow: model.FlowUpload, Level: LevelWarning, Message: "Please choose a file."}
	}

	format, ok := model.FormatFromFileName(name)
	if !ok {
		return model.StructureRecord{}, &ValidationError{
			Flow:    model.FlowUpload,
			Level:   LevelError,
			Message: "Unsupported file type: choose a .pdb or .cif file.",
		}
	}

	content, err := DecodeUpload(data)
	if err != nil {
		return model.StructureRecord{}, &AcquisitionError{Flow: model.FlowUpload, Input: name, Err: err}
	}

	return model.StructureRecord{
		Content:     content,
		Format:      format,
		SourceLabel: name,
		FileName:    name,
	}, nil
}
