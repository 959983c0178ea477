package metadata

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

var nativeExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".tif": {}, ".tiff": {},
}

// NativeEXIF reads EXIF tags in-process. It only understands JPEG and TIFF
// containers and emits a subset of exiftool's tag names.
type NativeEXIF struct{}

// Supports reports whether path has a container the reader understands.
func (NativeEXIF) Supports(path string) bool {
	_, ok := nativeExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extract decodes the EXIF block of path.
func (NativeEXIF) Extract(_ context.Context, path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	x, err := exif.Decode(f)
	if err != nil {
		return nil, err
	}

	doc := Document{
		"FileName":  filepath.Base(path),
		"Directory": filepath.Dir(path),
		"FileSize":  float64(info.Size()),
	}
	if t, err := x.DateTime(); err == nil {
		doc["DateTimeOriginal"] = t.Format("2006:01:02 15:04:05")
	}
	for tag, name := range map[exif.FieldName]string{
		exif.DateTimeDigitized: "CreateDate",
		exif.DateTime:          "ModifyDate",
		exif.Make:              "Make",
		exif.Model:             "Model",
	} {
		if v, err := x.Get(tag); err == nil {
			if s, err := v.StringVal(); err == nil {
				doc[name] = s
			}
		}
	}
	for tag, name := range map[exif.FieldName]string{
		exif.PixelXDimension: "ImageWidth",
		exif.PixelYDimension: "ImageHeight",
	} {
		if v, err := x.Get(tag); err == nil {
			if n, err := v.Int(0); err == nil {
				doc[name] = float64(n)
			}
		}
	}
	if v, err := x.Get(exif.Flash); err == nil {
		if n, err := v.Int(0); err == nil {
			// Bit 0 of the EXIF Flash tag is "flash fired".
			doc["Flash"] = n&1 == 1
		}
	}
	return doc, nil
}
