// Package dataset reads and writes annotation files: per-image JSON
// sidecars, a single master dataset file, and the COCO and Pascal VOC
// interchange formats. The package operates on a store, a label set,
// and an image list supplied by the caller; all file dialogs and
// confirmation flows stay in the UI layer.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"image-labeler/internal/annotation"
)

// FileSuffix is appended to an image's base name to form its annotation
// sidecar file name.
const FileSuffix = "_annotations.json"

// annotationJSON is the wire form of a single annotation. Label is a
// pointer so annotations whose label was deleted serialize as null.
type annotationJSON struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
	Label       *string   `json:"label"`
	Color       string    `json:"color"`
}

type imageFileJSON struct {
	ImagePath        string            `json:"image_path"`
	ImageName        string            `json:"image_name"`
	Annotations      []annotationJSON  `json:"annotations"`
	Labels           []string          `json:"labels"`
	LabelColors      map[string]string `json:"label_colors"`
	TotalAnnotations int               `json:"total_annotations"`
	AnnotationTypes  []string          `json:"annotation_types"`
	CreationDate     string            `json:"creation_date"`
}

type datasetInfoJSON struct {
	TotalImages      int               `json:"total_images"`
	TotalAnnotations int               `json:"total_annotations"`
	Labels           []string          `json:"labels"`
	LabelColors      map[string]string `json:"label_colors"`
	CreationDate     string            `json:"creation_date"`
	AnnotationTypes  []string          `json:"annotation_types"`
}

type masterImageJSON struct {
	ImagePath        string           `json:"image_path"`
	ImageName        string           `json:"image_name"`
	RelativePath     string           `json:"relative_path"`
	Annotations      []annotationJSON `json:"annotations"`
	TotalAnnotations int              `json:"total_annotations"`
	AnnotationTypes  []string         `json:"annotation_types"`
}

type masterJSON struct {
	DatasetInfo datasetInfoJSON   `json:"dataset_info"`
	Images      []masterImageJSON `json:"images"`
}

// wireKind maps a shape kind to its capitalized file representation.
func wireKind(k annotation.Kind) string {
	switch k {
	case annotation.KindPoint:
		return "Point"
	case annotation.KindRectangle:
		return "Rectangle"
	case annotation.KindCircle:
		return "Circle"
	case annotation.KindPolygon:
		return "Polygon"
	}
	return string(k)
}

func parseKind(s string) (annotation.Kind, error) {
	switch strings.ToLower(s) {
	case "point":
		return annotation.KindPoint, nil
	case "rectangle":
		return annotation.KindRectangle, nil
	case "circle":
		return annotation.KindCircle, nil
	case "polygon":
		return annotation.KindPolygon, nil
	}
	return "", fmt.Errorf("unknown annotation type %q", s)
}

func toWire(a annotation.Annotation) annotationJSON {
	w := annotationJSON{
		Type:        wireKind(a.Shape.Kind()),
		Coordinates: a.Shape.Coords(),
		Color:       a.Color,
	}
	if a.Label != "" {
		label := a.Label
		w.Label = &label
	}
	return w
}

func toWireSeq(anns []annotation.Annotation) []annotationJSON {
	wires := make([]annotationJSON, 0, len(anns))
	for _, a := range anns {
		wires = append(wires, toWire(a))
	}
	return wires
}

func fromWire(w annotationJSON) (annotation.Annotation, error) {
	kind, err := parseKind(w.Type)
	if err != nil {
		return annotation.Annotation{}, err
	}
	shape, err := annotation.NewShape(kind, w.Coordinates)
	if err != nil {
		return annotation.Annotation{}, err
	}
	label := ""
	if w.Label != nil {
		label = *w.Label
	}
	return annotation.Annotation{Shape: shape, Label: label, Color: w.Color}, nil
}

// fromWireSeq converts wire annotations, dropping entries that fail to
// parse so one bad record does not lose the rest of the file.
func fromWireSeq(wires []annotationJSON) []annotation.Annotation {
	anns := make([]annotation.Annotation, 0, len(wires))
	for _, w := range wires {
		a, err := fromWire(w)
		if err != nil {
			continue
		}
		anns = append(anns, a)
	}
	return anns
}

// typeNames returns the distinct wire type names in first-seen order.
func typeNames(anns []annotation.Annotation) []string {
	seen := make(map[string]bool)
	types := []string{}
	for _, a := range anns {
		name := wireKind(a.Shape.Kind())
		if !seen[name] {
			seen[name] = true
			types = append(types, name)
		}
	}
	return types
}

// AnnotationFilePath returns the sidecar file path for an image, next to
// the image itself.
func AnnotationFilePath(imagePath string) string {
	base := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	return filepath.Join(filepath.Dir(imagePath), base+FileSuffix)
}

// SaveImageFiles writes one sidecar JSON file per annotated image.
// Images without annotations are skipped. Returns the number of files
// written; on write failures the remaining images are still attempted
// and the first error is returned.
func SaveImageFiles(store *annotation.Store, labels *annotation.LabelSet, images []string) (int, error) {
	saved := 0
	var firstErr error
	for _, imagePath := range images {
		anns := store.ForImage(imagePath)
		if len(anns) == 0 {
			continue
		}
		if err := saveImageFile(imagePath, anns, labels); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		saved++
	}
	return saved, firstErr
}

func saveImageFile(imagePath string, anns []annotation.Annotation, labels *annotation.LabelSet) error {
	file := imageFileJSON{
		ImagePath:        imagePath,
		ImageName:        filepath.Base(imagePath),
		Annotations:      toWireSeq(anns),
		Labels:           labels.Names(),
		LabelColors:      labels.Colors(),
		TotalAnnotations: len(anns),
		AnnotationTypes:  typeNames(anns),
		CreationDate:     time.Now().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode annotations for %s: %w", file.ImageName, err)
	}
	if err := os.WriteFile(AnnotationFilePath(imagePath), data, 0644); err != nil {
		return fmt.Errorf("failed to write annotation file: %w", err)
	}
	return nil
}

// LoadImageFiles loads the sidecar file of every image that has one,
// replacing that image's stored sequence and merging the file's labels
// and colors into the label set. Returns the number of files loaded.
func LoadImageFiles(store *annotation.Store, labels *annotation.LabelSet, images []string) (int, error) {
	loaded := 0
	var firstErr error
	for _, imagePath := range images {
		data, err := os.ReadFile(AnnotationFilePath(imagePath))
		if err != nil {
			if !os.IsNotExist(err) && firstErr == nil {
				firstErr = fmt.Errorf("failed to read annotation file: %w", err)
			}
			continue
		}
		var file imageFileJSON
		if err := json.Unmarshal(data, &file); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to parse annotations for %s: %w", filepath.Base(imagePath), err)
			}
			continue
		}
		store.SetImageAnnotations(imagePath, fromWireSeq(file.Annotations))
		labels.Merge(file.Labels, file.LabelColors)
		loaded++
	}
	return loaded, firstErr
}

// SaveMaster writes every image's annotations into a single dataset file
// at path. Relative paths are recorded so the dataset can move together
// with its images.
func SaveMaster(path string, store *annotation.Store, labels *annotation.LabelSet, images []string) error {
	baseDir := filepath.Dir(path)
	master := masterJSON{Images: []masterImageJSON{}}

	total := 0
	var all []annotation.Annotation
	for _, imagePath := range images {
		anns := store.ForImage(imagePath)
		rel, err := filepath.Rel(baseDir, imagePath)
		if err != nil {
			rel = filepath.Base(imagePath)
		}
		master.Images = append(master.Images, masterImageJSON{
			ImagePath:        imagePath,
			ImageName:        filepath.Base(imagePath),
			RelativePath:     rel,
			Annotations:      toWireSeq(anns),
			TotalAnnotations: len(anns),
			AnnotationTypes:  typeNames(anns),
		})
		total += len(anns)
		all = append(all, anns...)
	}

	master.DatasetInfo = datasetInfoJSON{
		TotalImages:      len(images),
		TotalAnnotations: total,
		Labels:           labels.Names(),
		LabelColors:      labels.Colors(),
		CreationDate:     time.Now().Format(time.RFC3339),
		AnnotationTypes:  typeNames(all),
	}

	data, err := json.MarshalIndent(master, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode master dataset: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write master dataset: %w", err)
	}
	return nil
}

// MasterLoad reports the outcome of loading a master dataset file.
type MasterLoad struct {
	Images  []string // resolved image paths in file order
	Loaded  int
	Skipped int // images whose file could not be found on disk
}

// LoadMaster reads a master dataset file, replacing the label set and the
// stored sequences of every image it can locate. Each image is resolved
// by its absolute path, then relative to the master file, then by base
// name next to the master file; unresolved images are skipped and
// counted. The caller decides how the resolved list merges into the
// workspace.
func LoadMaster(path string, store *annotation.Store, labels *annotation.LabelSet) (*MasterLoad, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read master dataset: %w", err)
	}
	var master masterJSON
	if err := json.Unmarshal(data, &master); err != nil {
		return nil, fmt.Errorf("failed to parse master dataset: %w", err)
	}

	labels.Clear()
	labels.Merge(master.DatasetInfo.Labels, master.DatasetInfo.LabelColors)

	baseDir := filepath.Dir(path)
	result := &MasterLoad{}
	seen := make(map[string]bool)
	for _, img := range master.Images {
		candidates := []string{img.ImagePath}
		if img.RelativePath != "" {
			candidates = append(candidates, filepath.Join(baseDir, img.RelativePath))
		}
		if img.ImagePath != "" {
			candidates = append(candidates, filepath.Join(baseDir, filepath.Base(img.ImagePath)))
		}

		found := ""
		for _, c := range candidates {
			if c == "" {
				continue
			}
			if _, err := os.Stat(c); err == nil {
				found = c
				break
			}
		}
		if found == "" {
			result.Skipped++
			continue
		}

		store.SetImageAnnotations(found, fromWireSeq(img.Annotations))
		if !seen[found] {
			seen[found] = true
			result.Images = append(result.Images, found)
		}
		result.Loaded++
	}
	return result, nil
}
