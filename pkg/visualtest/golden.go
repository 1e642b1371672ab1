package visualtest

import (
	"flag"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/fogleman/gg"
)

var update = flag.Bool("update-golden", false, "rewrite golden images")

// Golden compares img with testdata/<name>.png. A missing golden file is
// written, as is every file when the -update-golden flag is set. On a
// mismatch the diff image is saved next to the golden file.
func Golden(t testing.TB, name string, img image.Image, opts Options) {
	t.Helper()
	path := filepath.Join("testdata", name+".png")
	if _, err := os.Stat(path); *update || os.IsNotExist(err) {
		if err := os.MkdirAll("testdata", 0o755); err != nil {
			t.Fatal(err)
		}
		if err := gg.SavePNG(path, img); err != nil {
			t.Fatal(err)
		}
		t.Logf("wrote golden image %s", path)
		return
	}
	want, err := gg.LoadPNG(path)
	if err != nil {
		t.Fatal(err)
	}
	opts.KeepDiff = true
	res, err := Compare(img, want, opts)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	if !res.Match {
		diff := filepath.Join("testdata", name+".diff.png")
		_ = res.SaveDiff(diff)
		t.Errorf("%s: %d of %d pixels differ (max %d), diff in %s",
			name, res.DifferentPixels, res.TotalPixels, res.MaxDifference, diff)
	}
}
