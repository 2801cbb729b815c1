package ocrbridge_test

import (
	"fmt"

	"github.com/gardar/ocrbridge/pkg/ocrbridge"
)

func ExampleTransform() {
	box := ocrbridge.NormalizedBox{X: 0.1, Y: 0.1, W: 0.2, H: 0.1}
	fmt.Printf("%+v\n", ocrbridge.Transform(box, 1000, 800))
	// Output: {XMin:100 YMin:640 XMax:300 YMax:720}
}

func ExampleBuildPage() {
	page := ocrbridge.BuildPage(ocrbridge.PageResult{
		Index:  1,
		Width:  1000,
		Height: 800,
		Annotations: []ocrbridge.Annotation{
			{Text: "Hello", Confidence: 0.95, BBox: ocrbridge.NormalizedBox{X: 0.1, Y: 0.8, W: 0.2, H: 0.05}},
			{Text: "World", Confidence: 0.9, BBox: ocrbridge.NormalizedBox{X: 0.35, Y: 0.8, W: 0.2, H: 0.05}},
		},
	}, ocrbridge.PageOptions{})

	for _, w := range page.AllWords() {
		fmt.Println(w.ID, w.Text, w.TitleAttr())
	}
	// Output:
	// word_1_1 Hello bbox 100 120 300 160; x_wconf 95
	// word_1_2 World bbox 350 120 550 160; x_wconf 90
}
