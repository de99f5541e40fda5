package encryption

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isearch/internal/database"
	"isearch/internal/testutil"
)

func TestSnapshotName(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	a, b := SnapshotName(now), SnapshotName(now)

	assert.True(t, strings.HasPrefix(a, "isearch-20240506T070809Z-"), "SnapshotName() = %q", a)
	assert.True(t, strings.HasSuffix(a, SnapshotExt), "SnapshotName() = %q", a)
	assert.NotEqual(t, a, b, "names must be unique")
}

func TestSnapshot_ExportImport(t *testing.T) {
	for name, k := range map[string]Keyring{
		"plain": PlainKeyring{},
		"age":   newTestAgeKeyring(t),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, k.Generate("pw"))

			clock := testutil.FixedClock()
			store := testutil.NewTestStore(t, clock)
			testutil.MustUpsert(t, store, testutil.Record("/data/kept.txt", 42, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

			outDir := t.TempDir()
			sealed, err := ExportSnapshot(store, k, outDir, clock.Now())
			require.NoError(t, err)
			assert.Equal(t, outDir, filepath.Dir(sealed))
			assert.True(t, strings.HasPrefix(filepath.Base(sealed), "isearch-20240115T103000Z-"), "snapshot %s", sealed)

			opener, err := k.Unlock("pw")
			require.NoError(t, err)
			dest := filepath.Join(t.TempDir(), "restored", "files.db")
			require.NoError(t, ImportSnapshot(opener, sealed, dest, false))

			restored, err := database.NewSQLiteDatabase(dest, nil, nil)
			require.NoError(t, err)
			defer restored.Close()

			rec, err := restored.GetFile("/data/kept.txt")
			require.NoError(t, err)
			require.NotNil(t, rec)
			assert.Equal(t, int64(42), rec.Size)
			assert.True(t, rec.ScanDate.Equal(clock.Now()), "ScanDate = %v", rec.ScanDate)
		})
	}
}

func TestImportSnapshot_RefusesOverwrite(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "files.db")
	require.NoError(t, os.WriteFile(dest, []byte("existing"), 0600))

	err := ImportSnapshot(plainOpener{}, filepath.Join(t.TempDir(), "missing"), dest, false)
	assert.ErrorContains(t, err, "already exists")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "existing", string(data), "existing database was modified")
}

func TestImportSnapshot_RejectsNonDatabase(t *testing.T) {
	dir := t.TempDir()
	sealed := filepath.Join(dir, "bogus"+SnapshotExt)
	f, err := os.Create(sealed)
	require.NoError(t, err)
	require.NoError(t, (PlainKeyring{}).Seal(strings.NewReader("not a database"), f))
	require.NoError(t, f.Close())

	dest := filepath.Join(dir, "files.db")
	require.Error(t, ImportSnapshot(plainOpener{}, sealed, dest, false))
	assert.NoFileExists(t, dest, "destination created for a rejected snapshot")
}

func TestExportSnapshot_NoKeys(t *testing.T) {
	store := testutil.NewTestStore(t, nil)
	_, err := ExportSnapshot(store, newTestAgeKeyring(t), t.TempDir(), time.Now())
	assert.ErrorIs(t, err, ErrNoKeys)
}
