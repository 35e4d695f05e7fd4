package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern, path string
		name          string
		frame         int
		ok            bool
	}{
		{"./assets/{box_rotate}_#.obj", "assets/box_rotate_12.obj", "box_rotate", 12, true},
		{"assets/{*}_#.vtk", "assets/cube_003.vtk", "cube", 3, true},
		{"{a}/{b}_#.vtk", "a/b_1.vtk", "ab", 1, true},
		{"{a}/{b}_#.vtk", "x/y_1.vtk", "", 0, false},
		{"{*}/{*}_#.vtk", "x/y_1.vtk", "xy", 1, true},
		{"assets/{box}.obj", "assets/box.obj", "box", 0, true},
		{"assets/{*}_#.obj", "assets/sub/box_1.obj", "", 0, false},
		{"assets/**/{*}_#.obj", "assets/sub/deep/box_1.obj", "box", 1, true},
		{"assets/{box}_#.obj", "assets/box_x.obj", "", 0, false},
		{"a+b/{m?}_#.obj", "a+b/m1_7.obj", "m1", 7, true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p, err := Compile(tt.pattern)
			require.NoError(t, err)
			name, frame, ok := p.Match(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.frame, frame)
		})
	}
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		path := filepath.Join(dir, n)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "box_2.obj", "box_1.obj", "box_10.obj", "ball_3.obj", "box_4.obj", "notes.txt", "sub/box_5.obj")

	entries, err := Find(filepath.Join(dir, "{*}_#.obj"), 1)
	require.NoError(t, err)
	var got []Entry
	for _, e := range entries {
		got = append(got, Entry{Name: e.Name, Frame: e.Frame, Path: filepath.Base(e.Path)})
	}
	assert.Equal(t, []Entry{
		{"ball", 3, "ball_3.obj"},
		{"box", 1, "box_1.obj"},
		{"box", 2, "box_2.obj"},
		{"box", 4, "box_4.obj"},
		{"box", 10, "box_10.obj"},
	}, got)

	entries, err = Find(filepath.Join(dir, "{box}_#.obj"), 3)
	require.NoError(t, err)
	var frames []int
	for _, e := range entries {
		frames = append(frames, e.Frame)
	}
	assert.Equal(t, []int{1, 4, 10}, frames)

	entries, err = Find(filepath.Join(dir, "**", "{box}_#.obj"), 1)
	require.NoError(t, err)
	assert.Len(t, entries, 5)

	_, err = Find(filepath.Join(dir, "{*}_#.vtk"), 1)
	assert.ErrorIs(t, err, ErrNoMatches)
}
