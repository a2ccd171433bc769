package dataset

import (
	"encoding/json"
	"encoding/xml"
	goimage "image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"image-labeler/internal/annotation"
	"image-labeler/pkg/geometry"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, goimage.NewRGBA(goimage.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func mustShape(t *testing.T, kind annotation.Kind, coords []float64) annotation.Shape {
	t.Helper()
	s, err := annotation.NewShape(kind, coords)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSaveAndLoadImageFiles(t *testing.T) {
	dir := t.TempDir()
	imgA := filepath.Join(dir, "a.png")
	imgB := filepath.Join(dir, "b.png")

	store := annotation.NewStore()
	store.SetImageAnnotations(imgA, []annotation.Annotation{
		annotation.New(annotation.NewRect(1, 2, 11, 12), "cat", "#AA0000"),
		{Shape: annotation.NewPoint(5, 5), Label: "", Color: "#FF0000"},
	})
	labels := annotation.NewLabelSet()
	labels.Add("cat", "#AA0000")

	saved, err := SaveImageFiles(store, labels, []string{imgA, imgB})
	if err != nil {
		t.Fatal(err)
	}
	if saved != 1 {
		t.Errorf("saved %d files, want 1", saved)
	}
	if _, err := os.Stat(AnnotationFilePath(imgB)); !os.IsNotExist(err) {
		t.Error("image without annotations should not get a file")
	}

	raw, err := os.ReadFile(AnnotationFilePath(imgA))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"label": null`) {
		t.Error("cleared label should serialize as null")
	}
	if !strings.Contains(string(raw), `"type": "Rectangle"`) {
		t.Error("shape types should serialize capitalized")
	}

	store2 := annotation.NewStore()
	labels2 := annotation.NewLabelSet()
	loaded, err := LoadImageFiles(store2, labels2, []string{imgA, imgB})
	if err != nil {
		t.Fatal(err)
	}
	if loaded != 1 {
		t.Errorf("loaded %d files, want 1", loaded)
	}

	anns := store2.ForImage(imgA)
	if len(anns) != 2 {
		t.Fatalf("got %d annotations, want 2", len(anns))
	}
	if anns[0].Label != "cat" || anns[0].Shape.Kind() != annotation.KindRectangle {
		t.Errorf("first annotation = %+v", anns[0])
	}
	if anns[1].Label != "" {
		t.Errorf("null label should load as empty, got %q", anns[1].Label)
	}
	if !labels2.Has("cat") || labels2.Color("cat") != "#AA0000" {
		t.Error("labels and colors should merge from the file")
	}
}

func TestMasterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	imgA := filepath.Join(dir, "a.png")
	imgB := filepath.Join(dir, "b.png")
	missing := filepath.Join(dir, "gone.png")
	writePNG(t, imgA, 4, 4)
	writePNG(t, imgB, 4, 4)

	store := annotation.NewStore()
	store.SetImageAnnotations(imgA, []annotation.Annotation{
		annotation.New(annotation.NewCircle(0, 0, 10, 10), "cat", "#AA0000"),
	})
	labels := annotation.NewLabelSet()
	labels.Add("cat", "#AA0000")

	masterPath := filepath.Join(dir, "master_dataset.json")
	if err := SaveMaster(masterPath, store, labels, []string{imgA, imgB, missing}); err != nil {
		t.Fatal(err)
	}

	store2 := annotation.NewStore()
	labels2 := annotation.NewLabelSet()
	labels2.Add("stale", "#123456")

	result, err := LoadMaster(masterPath, store2, labels2)
	if err != nil {
		t.Fatal(err)
	}
	if result.Loaded != 2 || result.Skipped != 1 {
		t.Errorf("loaded %d skipped %d, want 2 and 1", result.Loaded, result.Skipped)
	}
	if len(result.Images) != 2 || result.Images[0] != imgA {
		t.Errorf("resolved images = %v", result.Images)
	}
	if labels2.Has("stale") {
		t.Error("loading a master dataset should replace the label set")
	}
	if !labels2.Has("cat") {
		t.Error("labels should come from the dataset info")
	}
	anns := store2.ForImage(imgA)
	if len(anns) != 1 || anns[0].Shape.Kind() != annotation.KindCircle {
		t.Errorf("annotations for %s = %+v", imgA, anns)
	}
}

func TestLoadMasterResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	imgA := filepath.Join(dir, "a.png")
	writePNG(t, imgA, 4, 4)

	// The absolute path points at a machine that no longer exists; the
	// relative path next to the master file still resolves.
	master := masterJSON{
		DatasetInfo: datasetInfoJSON{TotalImages: 1},
		Images: []masterImageJSON{{
			ImagePath:    "/mnt/old-machine/a.png",
			ImageName:    "a.png",
			RelativePath: "a.png",
			Annotations: []annotationJSON{
				{Type: "Point", Coordinates: []float64{3, 4}, Color: "#FF0000"},
			},
		}},
	}
	data, err := json.MarshalIndent(master, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	masterPath := filepath.Join(dir, "master_dataset.json")
	if err := os.WriteFile(masterPath, data, 0644); err != nil {
		t.Fatal(err)
	}

	store := annotation.NewStore()
	result, err := LoadMaster(masterPath, store, annotation.NewLabelSet())
	if err != nil {
		t.Fatal(err)
	}
	if result.Loaded != 1 || result.Skipped != 0 {
		t.Fatalf("loaded %d skipped %d", result.Loaded, result.Skipped)
	}
	if len(result.Images) != 1 || result.Images[0] != imgA {
		t.Errorf("resolved images = %v", result.Images)
	}
	if len(store.ForImage(imgA)) != 1 {
		t.Error("annotations should attach to the resolved path")
	}
}

func TestImportCOCO(t *testing.T) {
	dir := t.TempDir()
	imgA := filepath.Join(dir, "a.png")

	coco := `{
		"images": [
			{"id": 1, "file_name": "a.png", "width": 100, "height": 100},
			{"id": 2, "file_name": "missing.png", "width": 100, "height": 100}
		],
		"annotations": [
			{"id": 1, "image_id": 1, "category_id": 1, "bbox": [10, 20, 30, 40]},
			{"id": 2, "image_id": 1, "category_id": 2, "segmentation": [[0, 0, 10, 0, 10, 10]]},
			{"id": 3, "image_id": 1, "category_id": 9, "bbox": [0, 0, 5, 5]},
			{"id": 4, "image_id": 2, "category_id": 1, "bbox": [0, 0, 5, 5]}
		],
		"categories": [
			{"id": 1, "name": "cat"},
			{"id": 2, "name": "dog"}
		]
	}`
	cocoPath := filepath.Join(dir, "coco.json")
	if err := os.WriteFile(cocoPath, []byte(coco), 0644); err != nil {
		t.Fatal(err)
	}

	store := annotation.NewStore()
	labels := annotation.NewLabelSet()
	result, err := ImportCOCO(cocoPath, store, labels, []string{imgA})
	if err != nil {
		t.Fatal(err)
	}

	if result.Processed != 2 || result.Skipped != 1 || result.ImagesAnnotated != 1 {
		t.Errorf("result = %+v", result)
	}
	if len(result.MissingImages) != 1 || result.MissingImages[0] != "missing.png" {
		t.Errorf("missing images = %v", result.MissingImages)
	}
	if !labels.Has("cat") || !labels.Has("dog") {
		t.Error("all categories should become labels")
	}

	anns := store.ForImage(imgA)
	if len(anns) != 2 {
		t.Fatalf("got %d annotations, want 2", len(anns))
	}
	wantRect := []float64{10, 20, 40, 60}
	if got := anns[0].Shape.Coords(); anns[0].Shape.Kind() != annotation.KindRectangle ||
		got[0] != wantRect[0] || got[1] != wantRect[1] || got[2] != wantRect[2] || got[3] != wantRect[3] {
		t.Errorf("bbox import = %v %v, want Rectangle %v", anns[0].Shape.Kind(), got, wantRect)
	}
	if anns[1].Shape.Kind() != annotation.KindPolygon {
		t.Errorf("segmentation import = %v, want Polygon", anns[1].Shape.Kind())
	}
	if anns[0].Color != labels.Color("cat") {
		t.Error("imported annotations should carry their label's color")
	}
}

func TestImportCOCOMissingKeyHasNoEffect(t *testing.T) {
	dir := t.TempDir()
	cocoPath := filepath.Join(dir, "bad.json")
	bad := `{"images": [], "annotations": []}`
	if err := os.WriteFile(cocoPath, []byte(bad), 0644); err != nil {
		t.Fatal(err)
	}

	imgA := filepath.Join(dir, "a.png")
	store := annotation.NewStore()
	store.SetImageAnnotations(imgA, []annotation.Annotation{
		annotation.New(annotation.NewPoint(1, 1), "cat", "#AA0000"),
	})
	labels := annotation.NewLabelSet()
	labels.Add("cat", "#AA0000")

	if _, err := ImportCOCO(cocoPath, store, labels, []string{imgA}); err == nil {
		t.Fatal("missing required key should be an error")
	}
	if len(store.ForImage(imgA)) != 1 {
		t.Error("a rejected import must leave the store untouched")
	}
	if labels.Count() != 1 {
		t.Error("a rejected import must leave the labels untouched")
	}
}

func TestExportCOCO(t *testing.T) {
	dir := t.TempDir()
	imgA := filepath.Join(dir, "a.png")
	writePNG(t, imgA, 20, 10)
	unreadable := filepath.Join(dir, "gone.png")

	store := annotation.NewStore()
	store.SetImageAnnotations(imgA, []annotation.Annotation{
		annotation.New(annotation.NewPoint(5, 5), "cat", "#AA0000"),
		annotation.New(annotation.NewRect(1, 2, 11, 8), "cat", "#AA0000"),
		annotation.New(annotation.NewPolygon([]geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}), "cat", "#AA0000"),
		{Shape: annotation.NewRect(0, 0, 5, 5), Label: "", Color: "#FF0000"},
	})
	labels := annotation.NewLabelSet()
	labels.Add("cat", "#AA0000")

	outPath := filepath.Join(dir, "annotations_coco.json")
	result, err := ExportCOCO(outPath, store, labels, []string{unreadable, imgA})
	if err != nil {
		t.Fatal(err)
	}
	if result.Images != 1 || result.Annotations != 3 || result.Categories != 1 {
		t.Errorf("result = %+v", result)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	var coco cocoFile
	if err := json.Unmarshal(data, &coco); err != nil {
		t.Fatal(err)
	}

	if len(coco.Images) != 1 || coco.Images[0].Width != 20 || coco.Images[0].Height != 10 {
		t.Errorf("images = %+v", coco.Images)
	}
	// Unreadable images are skipped but still consume an id.
	if coco.Images[0].ID != 2 {
		t.Errorf("image id = %d, want 2", coco.Images[0].ID)
	}
	if len(coco.Categories) != 1 || coco.Categories[0].ID != 1 || coco.Categories[0].Name != "cat" {
		t.Errorf("categories = %+v", coco.Categories)
	}
	if len(coco.Annotations) != 3 {
		t.Fatalf("got %d annotations, want 3", len(coco.Annotations))
	}

	point := coco.Annotations[0]
	if point.Area != 4 || len(point.BBox) != 4 || point.BBox[0] != 4 || point.BBox[1] != 4 || point.BBox[2] != 2 || point.BBox[3] != 2 {
		t.Errorf("point annotation = %+v", point)
	}
	rect := coco.Annotations[1]
	if rect.Area != 60 || rect.BBox[0] != 1 || rect.BBox[1] != 2 || rect.BBox[2] != 10 || rect.BBox[3] != 6 {
		t.Errorf("rect annotation = %+v", rect)
	}
	poly := coco.Annotations[2]
	if poly.Area != 50 || poly.BBox[2] != 10 || poly.BBox[3] != 10 {
		t.Errorf("polygon annotation = %+v", poly)
	}
	if len(poly.Segmentation) != 1 || len(poly.Segmentation[0]) != 6 {
		t.Errorf("polygon segmentation = %v", poly.Segmentation)
	}
}

func TestExportVOC(t *testing.T) {
	dir := t.TempDir()
	imgA := filepath.Join(dir, "a.png")
	imgB := filepath.Join(dir, "b.png")
	writePNG(t, imgA, 30, 20)
	writePNG(t, imgB, 30, 20)

	store := annotation.NewStore()
	store.SetImageAnnotations(imgA, []annotation.Annotation{
		annotation.New(annotation.NewRect(1.7, 2.2, 11.9, 8.1), "cat", "#AA0000"),
		annotation.New(annotation.NewPolygon([]geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 9}}), "dog", "#00AA00"),
		{Shape: annotation.NewPoint(3, 3), Label: "", Color: "#FF0000"},
	})

	exportDir := filepath.Join(dir, "out")
	result, err := ExportVOC(exportDir, store, []string{imgA, imgB})
	if err != nil {
		t.Fatal(err)
	}
	if result.Processed != 1 || result.Skipped != 1 {
		t.Errorf("result = %+v", result)
	}

	data, err := os.ReadFile(filepath.Join(result.Dir, "a.xml"))
	if err != nil {
		t.Fatal(err)
	}
	var doc vocAnnotation
	if err := xml.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}

	if doc.Filename != "a.png" || doc.Size.Width != 30 || doc.Size.Height != 20 {
		t.Errorf("doc = %+v", doc)
	}
	if len(doc.Objects) != 2 {
		t.Fatalf("got %d objects, want 2 (unlabeled skipped)", len(doc.Objects))
	}

	rect := doc.Objects[0]
	if rect.Name != "cat" || rect.Pose != "Unspecified" || rect.Truncated != 0 || rect.Difficult != 0 {
		t.Errorf("rect object = %+v", rect)
	}
	if rect.BndBox != (vocBndBox{Xmin: 1, Ymin: 2, Xmax: 11, Ymax: 8}) {
		t.Errorf("rect bndbox = %+v", rect.BndBox)
	}

	poly := doc.Objects[1]
	if poly.BndBox != (vocBndBox{Xmin: 0, Ymin: 0, Xmax: 10, Ymax: 9}) {
		t.Errorf("polygon bndbox = %+v", poly.BndBox)
	}
	if poly.Polygon == nil || len(poly.Polygon.Points) != 3 {
		t.Fatalf("polygon points = %+v", poly.Polygon)
	}
	if poly.Polygon.Points[2] != (vocPoint{X: 5, Y: 9}) {
		t.Errorf("last polygon point = %+v", poly.Polygon.Points[2])
	}
}
