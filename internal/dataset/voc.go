package dataset

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"image-labeler/internal/annotation"
	"image-labeler/internal/image"
)

type vocSource struct {
	Database string `xml:"database"`
}

type vocSize struct {
	Width  int `xml:"width"`
	Height int `xml:"height"`
	Depth  int `xml:"depth"`
}

type vocBndBox struct {
	Xmin int `xml:"xmin"`
	Ymin int `xml:"ymin"`
	Xmax int `xml:"xmax"`
	Ymax int `xml:"ymax"`
}

type vocPoint struct {
	X int `xml:"x"`
	Y int `xml:"y"`
}

type vocPolygon struct {
	Points []vocPoint `xml:"pt"`
}

type vocObject struct {
	Name      string      `xml:"name"`
	Pose      string      `xml:"pose"`
	Truncated int         `xml:"truncated"`
	Difficult int         `xml:"difficult"`
	BndBox    vocBndBox   `xml:"bndbox"`
	Polygon   *vocPolygon `xml:"polygon,omitempty"`
}

type vocAnnotation struct {
	XMLName   xml.Name    `xml:"annotation"`
	Folder    string      `xml:"folder"`
	Filename  string      `xml:"filename"`
	Path      string      `xml:"path"`
	Source    vocSource   `xml:"source"`
	Size      vocSize     `xml:"size"`
	Segmented int         `xml:"segmented"`
	Objects   []vocObject `xml:"object"`
}

// VOCExport reports the outcome of a Pascal VOC export.
type VOCExport struct {
	Dir       string // the Annotations directory written to
	Processed int
	Skipped   int // images without annotations or with unreadable files
}

// ExportVOC writes one Pascal VOC XML file per annotated image into an
// Annotations subdirectory of dir. Unlabeled annotations are omitted.
// Points export as a 2x2 pixel bounding box; polygons get a bounding box
// from their extremes plus a polygon point list.
func ExportVOC(dir string, store *annotation.Store, images []string) (*VOCExport, error) {
	annotationsDir := filepath.Join(dir, "Annotations")
	if err := os.MkdirAll(annotationsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create annotations directory: %w", err)
	}

	result := &VOCExport{Dir: annotationsDir}
	var firstErr error
	for _, imagePath := range images {
		anns := store.ForImage(imagePath)
		if len(anns) == 0 {
			result.Skipped++
			continue
		}
		w, h, depth, err := image.DecodeInfo(imagePath)
		if err != nil {
			result.Skipped++
			continue
		}

		doc := vocAnnotation{
			Folder:   filepath.Base(filepath.Dir(imagePath)),
			Filename: filepath.Base(imagePath),
			Path:     imagePath,
			Source:   vocSource{Database: "Unknown"},
			Size:     vocSize{Width: w, Height: h, Depth: depth},
		}
		for _, a := range anns {
			if a.Label == "" {
				continue
			}
			doc.Objects = append(doc.Objects, vocObjectFor(a))
		}

		base := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
		xmlPath := filepath.Join(annotationsDir, base+".xml")
		if err := writeVOCFile(xmlPath, doc); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			result.Skipped++
			continue
		}
		result.Processed++
	}
	return result, firstErr
}

func vocObjectFor(a annotation.Annotation) vocObject {
	obj := vocObject{
		Name: a.Label,
		Pose: "Unspecified",
	}
	coords := a.Shape.Coords()
	switch a.Shape.Kind() {
	case annotation.KindPoint:
		x, y := coords[0], coords[1]
		obj.BndBox = vocBndBox{
			Xmin: int(x - 1), Ymin: int(y - 1),
			Xmax: int(x + 1), Ymax: int(y + 1),
		}
	case annotation.KindRectangle, annotation.KindCircle:
		obj.BndBox = vocBndBox{
			Xmin: int(coords[0]), Ymin: int(coords[1]),
			Xmax: int(coords[2]), Ymax: int(coords[3]),
		}
	case annotation.KindPolygon:
		b := a.Shape.Bounds()
		obj.BndBox = vocBndBox{
			Xmin: int(b.X), Ymin: int(b.Y),
			Xmax: int(b.X + b.Width), Ymax: int(b.Y + b.Height),
		}
		poly := &vocPolygon{}
		for i := 0; i+1 < len(coords); i += 2 {
			poly.Points = append(poly.Points, vocPoint{X: int(coords[i]), Y: int(coords[i+1])})
		}
		obj.Polygon = poly
	}
	return obj
}

func writeVOCFile(path string, doc vocAnnotation) error {
	data, err := xml.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode VOC annotation: %w", err)
	}
	out := append([]byte(xml.Header), data...)
	out = append(out, '\n')
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write VOC annotation: %w", err)
	}
	return nil
}
