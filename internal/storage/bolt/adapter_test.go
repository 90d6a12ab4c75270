package bolt

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/repository-feed/internal/storage/storagetest"
)

func TestBoltStorage(t *testing.T) {
	s, err := NewBoltStorage(filepath.Join(t.TempDir(), "feed.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	storagetest.Run(t, s)
}
