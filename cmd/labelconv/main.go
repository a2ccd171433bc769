// Command labelconv converts annotations between formats without the GUI.
// It loads a workspace from an image folder with per-image annotation files
// or from a master dataset JSON, then writes any of the supported outputs.
//
// Usage:
//
//	labelconv -dir ./photos -coco out.json
//	labelconv -master dataset.json -voc ./voc_out
//	labelconv -dir ./photos -import-coco coco.json -master dataset.json
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"image-labeler/internal/annotation"
	"image-labeler/internal/dataset"
	"image-labeler/internal/image"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	dir := flag.String("dir", "", "image folder to load (with per-image annotation files)")
	masterIn := flag.String("master", "", "master dataset JSON to load")
	importCOCO := flag.String("import-coco", "", "COCO JSON to import onto the loaded images")
	cocoOut := flag.String("coco", "", "write COCO export to this file")
	vocOut := flag.String("voc", "", "write Pascal VOC export to this directory")
	masterOut := flag.String("master-out", "", "write master dataset JSON to this file")
	flag.Parse()

	if *dir == "" && *masterIn == "" {
		fmt.Fprintln(os.Stderr, "labelconv: need -dir or -master")
		flag.Usage()
		os.Exit(2)
	}

	store := annotation.NewStore()
	labels := annotation.NewLabelSet()
	var images []string

	switch {
	case *masterIn != "":
		result, err := dataset.LoadMaster(*masterIn, store, labels)
		if err != nil {
			log.Fatalf("load master: %v", err)
		}
		images = result.Images
		log.Printf("Loaded master %s: %d image(s), %d skipped",
			*masterIn, result.Loaded, result.Skipped)
	default:
		images = image.FindImageFiles(*dir)
		if len(images) == 0 {
			log.Fatalf("no supported images in %s", *dir)
		}
		loaded, err := dataset.LoadImageFiles(store, labels, images)
		if err != nil {
			log.Fatalf("load annotations: %v", err)
		}
		log.Printf("Loaded %d image(s), annotations for %d", len(images), loaded)
	}

	if *importCOCO != "" {
		result, err := dataset.ImportCOCO(*importCOCO, store, labels, images)
		if err != nil {
			log.Fatalf("import COCO: %v", err)
		}
		log.Printf("Imported %d annotation(s) onto %d image(s), skipped %d",
			result.Processed, result.ImagesAnnotated, result.Skipped)
		for _, name := range result.MissingImages {
			log.Printf("  image not in workspace: %s", name)
		}
	}

	if *cocoOut != "" {
		result, err := dataset.ExportCOCO(*cocoOut, store, labels, images)
		if err != nil {
			log.Fatalf("export COCO: %v", err)
		}
		log.Printf("COCO: %d annotation(s), %d image(s), %d categorie(s) -> %s",
			result.Annotations, result.Images, result.Categories, *cocoOut)
	}

	if *vocOut != "" {
		result, err := dataset.ExportVOC(*vocOut, store, images)
		if err != nil {
			log.Fatalf("export VOC: %v", err)
		}
		log.Printf("VOC: %d image(s) -> %s, %d skipped", result.Processed, result.Dir, result.Skipped)
	}

	if *masterOut != "" {
		if err := dataset.SaveMaster(*masterOut, store, labels, images); err != nil {
			log.Fatalf("save master: %v", err)
		}
		log.Printf("Master dataset -> %s", *masterOut)
	}
}
