package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, rels ...string) {
	t.Helper()
	for _, rel := range rels {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	}
}

func scan(t *testing.T, root string) *Snapshot {
	t.Helper()
	snap, err := Scan(context.Background(), root, ScanOptions{})
	require.NoError(t, err)
	return snap
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"2024/deck_20240115.xlsx",
		"2024/deck_20240215.xlsx",
		"2023/old_20231201.xlsx",
		".git/HEAD",
		"2024/.DS_Store",
		"2024/~$deck_20240215.xlsx",
		"notes.txt",
	)

	snap := scan(t, root)
	assert.Equal(t, []string{
		"2023/old_20231201.xlsx",
		"2024/deck_20240115.xlsx",
		"2024/deck_20240215.xlsx",
		"notes.txt",
	}, Descs(snap.Files))

	filtered, err := Scan(context.Background(), root, ScanOptions{
		Match: func(rel string) bool { return strings.HasSuffix(rel, ".xlsx") },
	})
	require.NoError(t, err)
	assert.Len(t, filtered.Files, 3)
}

func TestScan_Errors(t *testing.T) {
	_, err := Scan(context.Background(), "", ScanOptions{})
	assert.Error(t, err)

	_, err = Scan(context.Background(), filepath.Join(t.TempDir(), "missing"), ScanOptions{})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "f.xlsx")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	_, err = Scan(context.Background(), file, ScanOptions{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	root := t.TempDir()
	writeFiles(t, root, "a_20240101.xlsx")
	_, err = Scan(ctx, root, ScanOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFiles_Bootstrap(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a_20240101.xlsx", "b_20240201.xlsx")

	plan := Diff(scan(t, root), nil)
	assert.True(t, plan.Bootstrap)
	assert.Equal(t, []string{"a_20240101.xlsx", "b_20240201.xlsx"}, Descs(plan.New))
	assert.Empty(t, plan.Deleted)
}

func TestDiff_NewAndDeleted(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "2024/a_20240101.xlsx", "2024/b_20240201.xlsx", "2024/c_20240301.xlsx")

	cataloged := NewCataloged([]string{
		"2024/a_20240101.xlsx",
		"./2024/b_20240201.xlsx",
		"2023/old_20231201.xlsx",
	})

	snap := scan(t, root)
	plan := Diff(snap, cataloged)

	assert.False(t, plan.Bootstrap)
	assert.Equal(t, []string{"2024/c_20240301.xlsx"}, Descs(plan.New))
	require.Len(t, plan.Deleted, 1)
	assert.Equal(t, "2023/old_20231201.xlsx", plan.Deleted[0].RelPath)
	assert.Equal(t, filepath.Join(snap.Root, "2023", "old_20231201.xlsx"), plan.Deleted[0].Path())

	// A file on disk is never reported deleted; a cataloged file is never new.
	for _, d := range plan.Deleted {
		assert.False(t, snap.Has(d.RelPath))
	}
	for _, n := range plan.New {
		assert.False(t, cataloged.Has(n.RelPath))
	}
}

func TestDiff_RootSpelling(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "2024/a_20240101.xlsx")
	cataloged := NewCataloged([]string{"2024/a_20240101.xlsx"})

	for _, spelling := range []string{root, root + "/", root + "//", filepath.Join(root, "2024", "..")} {
		t.Run(spelling, func(t *testing.T) {
			plan := Diff(scan(t, spelling), cataloged)
			assert.True(t, plan.Empty(), "new=%v deleted=%v", Descs(plan.New), Descs(plan.Deleted))
		})
	}
}

func TestDiff_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a_20240101.xlsx", "b_20240201.xlsx")

	first := Diff(scan(t, root), nil)
	require.Len(t, first.New, 2)

	// Ingesting the new files catalogs their descs.
	second := Diff(scan(t, root), NewCataloged(Descs(first.New)))
	assert.Empty(t, second.New)
	assert.Empty(t, second.Deleted)
}

func TestDeletedFiles_AfterRemoval(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "2023/old.xlsx", "2024/new_20240101.xlsx")
	cataloged := NewCataloged([]string{"2023/old.xlsx", "2024/new_20240101.xlsx"})

	assert.Empty(t, DeletedFiles(scan(t, root), cataloged))

	require.NoError(t, os.Remove(filepath.Join(root, "2023", "old.xlsx")))
	deleted := DeletedFiles(scan(t, root), cataloged)
	assert.Equal(t, []string{"2023/old.xlsx"}, Descs(deleted))
}

func TestNormalizeDesc(t *testing.T) {
	tests := map[string]string{
		"2024/a.xlsx":       "2024/a.xlsx",
		"./2024/a.xlsx":     "2024/a.xlsx",
		"/2024/a.xlsx":      "2024/a.xlsx",
		"2024//a.xlsx":      "2024/a.xlsx",
		`2024\a.xlsx`:       "2024/a.xlsx",
		" 2024/x/../a.xlsx": "2024/a.xlsx",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeDesc(in), in)
	}
}

func TestSnapshot_HasPath(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "2024/a.xlsx")
	snap := scan(t, root)

	assert.True(t, snap.HasPath(filepath.Join(root, "2024", "a.xlsx")))
	assert.False(t, snap.HasPath(filepath.Join(root, "2024", "b.xlsx")))
	assert.False(t, snap.HasPath(filepath.Join(filepath.Dir(root), "a.xlsx")))
}

func TestDeletedFiles_IgnoresScanFilter(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"deck_20240115.xlsx",
		".staging/deck_20240215.xlsx",
		"archive/deck_20231215.xlsm",
		"~$deck_20240115.xlsx",
	)

	snap, err := Scan(context.Background(), root, ScanOptions{
		Match: func(rel string) bool { return strings.HasSuffix(rel, ".xlsx") },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"deck_20240115.xlsx"}, Descs(snap.Files))

	cataloged := NewCataloged([]string{
		".staging/deck_20240215.xlsx",
		"archive/deck_20231215.xlsm",
		"~$deck_20240115.xlsx",
		"gone_20230101.xlsx",
	})

	plan := Diff(snap, cataloged)
	assert.Equal(t, []string{"deck_20240115.xlsx"}, Descs(plan.New))
	assert.Equal(t, []string{"gone_20230101.xlsx"}, Descs(plan.Deleted))

	for _, d := range plan.Deleted {
		assert.False(t, snap.OnDisk(d.RelPath))
	}
	assert.True(t, snap.OnDisk(".staging/deck_20240215.xlsx"))
	assert.False(t, snap.Has(".staging/deck_20240215.xlsx"))
}
