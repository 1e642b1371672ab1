// Command pressroom-view previews a report in a window. The report runs in
// the background; pages can be browsed once the run is done.
package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"pressroom/pkg/datasource"
	"pressroom/pkg/engine"
	"pressroom/pkg/output/raster"
	"pressroom/pkg/resource"
	"pressroom/pkg/state"
)

// viewer holds the pages of the last run and the page shown.
type viewer struct {
	eng      *engine.Engine
	renderer *raster.Renderer
	pages    *engine.PageCollector
	current  int
}

func (v *viewer) page(i int) image.Image {
	if v.pages == nil || i < 0 || i >= len(v.pages.Pages) {
		return nil
	}
	return v.renderer.Render(v.pages.Pages[i])
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <report.yaml> [query=data.csv ...]\n", os.Args[0])
		os.Exit(1)
	}
	path := os.Args[1]
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	fetcher := resource.NewFetcher(filepath.Dir(path))
	eng, err := engine.New(nil, engine.WithLogger(logger), engine.WithFetcher(fetcher))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	faces, _ := eng.Measurer.(raster.FaceSource)
	v := &viewer{eng: eng, renderer: raster.NewRenderer(96, faces)}

	a := app.New()
	w := a.NewWindow("pressroom - " + filepath.Base(path))
	w.Resize(fyne.NewSize(900, 1000))

	target := image.NewRGBA(image.Rect(0, 0, 1, 1))
	pageImg := canvas.NewImageFromImage(target)
	pageImg.FillMode = canvas.ImageFillContain

	status := widget.NewLabel("Loading " + path)
	progress := widget.NewProgressBar()
	progress.Max = 100

	var prev, next, cancelBtn *widget.Button
	show := func(i int) {
		img := v.page(i)
		if img == nil {
			return
		}
		v.current = i
		pageImg.Image = img
		pageImg.Refresh()
		status.SetText(fmt.Sprintf("Page %d of %d", i+1, len(v.pages.Pages)))
		prev.Enable()
		next.Enable()
		if i == 0 {
			prev.Disable()
		}
		if i == len(v.pages.Pages)-1 {
			next.Disable()
		}
	}
	prev = widget.NewButton("Previous", func() { show(v.current - 1) })
	next = widget.NewButton("Next", func() { show(v.current + 1) })
	prev.Disable()
	next.Disable()

	ctx, cancel := context.WithCancel(context.Background())
	cancelBtn = widget.NewButton("Cancel", cancel)

	go func() {
		rep, err := eng.LoadReport(path)
		if err == nil && len(os.Args) > 2 {
			csv := datasource.NewCSVFactory(fetcher)
			for _, arg := range os.Args[2:] {
				if q, p, ok := strings.Cut(arg, "="); ok {
					csv.Files[q] = p
				}
			}
			rep.DataFactory = csv
		}
		if err != nil {
			fyne.Do(func() { status.SetText("Error: " + err.Error()) })
			return
		}
		p := eng.NewProcessor(rep)
		p.Notifier = &state.Notifier{}
		p.Notifier.SubscribeAll(func(ev state.ProgressEvent) {
			pct := p.Percentage(ev)
			activity := ev.Activity.String()
			fyne.Do(func() {
				progress.SetValue(pct)
				status.SetText(activity)
			})
		})
		pages := &engine.PageCollector{}
		err = p.Run(ctx, pages)
		fyne.Do(func() {
			cancelBtn.Disable()
			if err != nil {
				status.SetText("Error: " + err.Error())
				return
			}
			v.pages = pages
			progress.SetValue(100)
			if len(pages.Pages) == 0 {
				status.SetText("No pages")
				return
			}
			show(0)
		})
	}()

	buttons := container.NewHBox(prev, next, cancelBtn)
	bottom := container.NewBorder(nil, nil, nil, buttons, container.NewVBox(progress, status))
	w.SetContent(container.NewBorder(nil, bottom, nil, nil, pageImg))
	w.SetOnClosed(cancel)
	w.ShowAndRun()
}
