package res_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tesselslate/xmacro/internal/res"
)

func TestWriteResources(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	dir, err := res.WriteResources()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, res.DefaultConfigPath)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(res.DefaultConfig) {
		t.Fatal("default config contents differ")
	}

	// A modified resource is restored on the next write.
	if err := os.WriteFile(path, []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := res.WriteResources(); err != nil {
		t.Fatal(err)
	}
	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(res.DefaultConfig) {
		t.Fatal("default config was not restored")
	}
	if _, err := os.Stat(filepath.Join(dir, res.ExampleMacroPath)); err != nil {
		t.Fatal(err)
	}
}
