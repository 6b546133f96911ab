// Package viewer prepares structures for the Mol* widget: stable widget keys,
// download descriptors and the single-page HTML shell.
package viewer

import (
	"crypto/md5" //nolint:gosec // identity hash, not a security boundary
	"encoding/hex"

	"github.com/sells-group/proviewer/internal/model"
)

const digestLen = 12

// Key returns a widget key that is identical for identical (label, content,
// format) and differs, with high probability, when the content differs.
func Key(label string, content string, format model.Format) string {
	sum := md5.Sum([]byte(string(format) + ":" + content)) //nolint:gosec
	digest := hex.EncodeToString(sum[:])[:digestLen]
	return "molstar-" + label + "-" + string(format) + "-" + digest
}
