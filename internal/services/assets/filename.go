package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/marketdigest/internal/models"
)

// FileName builds "<prefix>_<sanitized label>[_<hash>].<ext>". The hash is
// appended only when sanitizing changed the label, so "S&P" and "S P" never collide.
func FileName(prefix string, label models.Candidate, ext string) string {
	raw := string(label)
	var sb strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}

	name := sb.String()
	if name == "" || name != raw {
		sum := sha256.Sum256([]byte(raw))
		name = fmt.Sprintf("%s_%s", name, hex.EncodeToString(sum[:4]))
	}
	return fmt.Sprintf("%s_%s.%s", prefix, name, ext)
}

// writeAsset persists data under dir and returns the full path
func writeAsset(dir, prefix string, label models.Candidate, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create asset directory: %w", err)
	}
	path := filepath.Join(dir, FileName(prefix, label, ext))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write asset %s: %w", path, err)
	}
	return path, nil
}
