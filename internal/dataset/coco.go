package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"image-labeler/internal/annotation"
	"image-labeler/internal/image"
	"image-labeler/pkg/colorutil"
	"image-labeler/pkg/geometry"
)

type cocoInfo struct {
	Year        int    `json:"year"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Contributor string `json:"contributor"`
	DateCreated string `json:"date_created"`
}

type cocoLicense struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type cocoImage struct {
	ID           int    `json:"id"`
	FileName     string `json:"file_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	DateCaptured string `json:"date_captured,omitempty"`
	License      int    `json:"license,omitempty"`
	CocoURL      string `json:"coco_url,omitempty"`
	FlickrURL    string `json:"flickr_url,omitempty"`
}

type cocoAnnotation struct {
	ID           int         `json:"id"`
	ImageID      int         `json:"image_id"`
	CategoryID   int         `json:"category_id"`
	Segmentation [][]float64 `json:"segmentation"`
	Area         float64     `json:"area"`
	BBox         []float64   `json:"bbox"`
	IsCrowd      int         `json:"iscrowd"`
}

type cocoCategory struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Supercategory string `json:"supercategory"`
}

type cocoFile struct {
	Info        cocoInfo         `json:"info"`
	Licenses    []cocoLicense    `json:"licenses"`
	Images      []cocoImage      `json:"images"`
	Annotations []cocoAnnotation `json:"annotations"`
	Categories  []cocoCategory   `json:"categories"`
}

// COCOImport reports the outcome of a COCO import.
type COCOImport struct {
	ImagesAnnotated int      // images whose sequence was replaced
	Processed       int      // annotations converted
	Skipped         int      // annotations dropped (unknown category or bad geometry)
	MissingImages   []string // file names not present in the workspace
}

// ImportCOCO loads a COCO annotation file and converts its entries onto
// the workspace images, matching by file name. A bbox becomes a
// rectangle; otherwise the first segmentation ring becomes a polygon.
// Categories become labels, with generated colors for new ones. The file
// is fully validated before anything is touched, so a malformed file has
// no effect on the store or label set.
func ImportCOCO(path string, store *annotation.Store, labels *annotation.LabelSet, images []string) (*COCOImport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read COCO file: %w", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse COCO file: %w", err)
	}
	for _, key := range []string{"images", "annotations", "categories"} {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("invalid COCO format: missing %q", key)
		}
	}
	var coco cocoFile
	if err := json.Unmarshal(data, &coco); err != nil {
		return nil, fmt.Errorf("failed to parse COCO file: %w", err)
	}

	categoryNames := make(map[int]string, len(coco.Categories))
	for _, c := range coco.Categories {
		categoryNames[c.ID] = c.Name
	}

	// Colors are generated once per new label and reused both for the
	// converted annotations and for the label set update below.
	newColors := make(map[string]string)
	colorFor := func(label string) string {
		if labels.Has(label) {
			return labels.Color(label)
		}
		if c, ok := newColors[label]; ok {
			return c
		}
		c := colorutil.RandomLabelColor()
		newColors[label] = c
		return c
	}

	fileMap := make(map[string]string, len(images))
	for _, p := range images {
		fileMap[filepath.Base(p)] = p
	}

	byImage := make(map[int][]cocoAnnotation)
	for _, ann := range coco.Annotations {
		byImage[ann.ImageID] = append(byImage[ann.ImageID], ann)
	}

	result := &COCOImport{}
	missing := make(map[string]bool)
	imported := make(map[string][]annotation.Annotation)
	for _, img := range coco.Images {
		imagePath, ok := fileMap[img.FileName]
		if !ok {
			missing[img.FileName] = true
			continue
		}
		var anns []annotation.Annotation
		for _, ca := range byImage[img.ID] {
			label, ok := categoryNames[ca.CategoryID]
			if !ok {
				result.Skipped++
				continue
			}
			var shape annotation.Shape
			switch {
			case len(ca.BBox) == 4:
				x, y, w, h := ca.BBox[0], ca.BBox[1], ca.BBox[2], ca.BBox[3]
				shape = annotation.NewRect(x, y, x+w, y+h)
			case len(ca.Segmentation) > 0 && len(ca.Segmentation[0]) >= 6 && len(ca.Segmentation[0])%2 == 0:
				shape = annotation.NewPolygon(pointsFromCoords(ca.Segmentation[0]))
			default:
				result.Skipped++
				continue
			}
			anns = append(anns, annotation.New(shape, label, colorFor(label)))
			result.Processed++
		}
		if len(anns) > 0 {
			imported[imagePath] = anns
		}
	}

	for _, c := range coco.Categories {
		if !labels.Has(c.Name) {
			labels.Add(c.Name, colorFor(c.Name))
		}
	}
	for p, anns := range imported {
		store.SetImageAnnotations(p, anns)
	}
	result.ImagesAnnotated = len(imported)
	for name := range missing {
		result.MissingImages = append(result.MissingImages, name)
	}
	sort.Strings(result.MissingImages)
	return result, nil
}

// COCOExport reports the outcome of a COCO export.
type COCOExport struct {
	Images      int
	Annotations int
	Categories  int
}

// ExportCOCO writes the workspace annotations as a COCO dataset file.
// Image ids follow the workspace order; unreadable images are skipped
// but still consume an id. Unlabeled annotations are omitted since COCO
// requires a category.
func ExportCOCO(path string, store *annotation.Store, labels *annotation.LabelSet, images []string) (*COCOExport, error) {
	now := time.Now()
	coco := cocoFile{
		Info: cocoInfo{
			Year:        now.Year(),
			Version:     "1.0",
			Description: "Exported from image-labeler",
			DateCreated: now.Format(time.RFC3339),
		},
		Licenses:    []cocoLicense{{ID: 1, Name: "Unknown"}},
		Images:      []cocoImage{},
		Annotations: []cocoAnnotation{},
		Categories:  []cocoCategory{},
	}

	categoryIDs := make(map[string]int)
	for i, name := range labels.Names() {
		coco.Categories = append(coco.Categories, cocoCategory{
			ID:            i + 1,
			Name:          name,
			Supercategory: "none",
		})
		categoryIDs[name] = i + 1
	}

	annID := 1
	for i, imagePath := range images {
		imageID := i + 1
		w, h, _, err := image.DecodeInfo(imagePath)
		if err != nil {
			continue
		}
		coco.Images = append(coco.Images, cocoImage{
			ID:           imageID,
			FileName:     filepath.Base(imagePath),
			Width:        w,
			Height:       h,
			DateCaptured: now.Format(time.RFC3339),
			License:      1,
		})
		for _, a := range store.ForImage(imagePath) {
			catID, ok := categoryIDs[a.Label]
			if !ok {
				continue
			}
			bbox, area, seg := cocoGeometry(a.Shape)
			coco.Annotations = append(coco.Annotations, cocoAnnotation{
				ID:           annID,
				ImageID:      imageID,
				CategoryID:   catID,
				Segmentation: seg,
				Area:         area,
				BBox:         bbox,
			})
			annID++
		}
	}

	data, err := json.MarshalIndent(coco, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode COCO dataset: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write COCO dataset: %w", err)
	}
	return &COCOExport{
		Images:      len(coco.Images),
		Annotations: len(coco.Annotations),
		Categories:  len(coco.Categories),
	}, nil
}

// cocoGeometry converts a shape into COCO bbox, area, and segmentation.
// A point has no COCO equivalent and exports as a 2x2 pixel box.
func cocoGeometry(s annotation.Shape) (bbox []float64, area float64, seg [][]float64) {
	switch s.Kind() {
	case annotation.KindPoint:
		c := s.Coords()
		x, y := c[0], c[1]
		bbox = []float64{x - 1, y - 1, 2, 2}
		area = 4
		seg = [][]float64{{x - 1, y - 1, x + 1, y - 1, x + 1, y + 1, x - 1, y + 1}}
	case annotation.KindRectangle, annotation.KindCircle:
		c := s.Coords()
		x1, y1, x2, y2 := c[0], c[1], c[2], c[3]
		bbox = []float64{x1, y1, x2 - x1, y2 - y1}
		area = (x2 - x1) * (y2 - y1)
		seg = [][]float64{{x1, y1, x2, y1, x2, y2, x1, y2}}
	case annotation.KindPolygon:
		b := s.Bounds()
		bbox = []float64{b.X, b.Y, b.Width, b.Height}
		area = s.Area()
		seg = [][]float64{s.Coords()}
	}
	return bbox, area, seg
}

func pointsFromCoords(coords []float64) []geometry.Point2D {
	points := make([]geometry.Point2D, len(coords)/2)
	for i := range points {
		points[i] = geometry.Point2D{X: coords[2*i], Y: coords[2*i+1]}
	}
	return points
}
